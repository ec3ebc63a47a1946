package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"property-billing/internal/entities"
	"property-billing/internal/repositories"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/eventbus"
	"property-billing/pkg/types"
)

var testLocation = time.FixedZone("CST", 8*3600)

type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) RunInTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	return fn(nil)
}

type fakeAudit struct {
	mu      sync.Mutex
	records []AuditRecord
	callers []Caller
}

func (f *fakeAudit) Record(_ context.Context, caller Caller, rec AuditRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	f.callers = append(f.callers, caller)
}

func (f *fakeAudit) ListLogs(context.Context, Caller, entities.OperationLogFilter, types.Page) ([]entities.OperationLog, uint64, error) {
	return nil, 0, nil
}

func (f *fakeAudit) PurgeOlderThan(context.Context, time.Time, int) (int64, error) {
	return 0, nil
}

func (f *fakeAudit) operations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, 0, len(f.records))
	for _, r := range f.records {
		ops = append(ops, r.OperationType)
	}
	return ops
}

type fakePublisher struct {
	events []eventbus.Event
}

func (f *fakePublisher) Publish(_ context.Context, event eventbus.Event) {
	f.events = append(f.events, event)
}

type fakeLogRepo struct {
	remaining int64
	batches   []int64
	inserted  []entities.OperationLog
	lastPage  types.Page
}

func (f *fakeLogRepo) Insert(_ context.Context, l entities.OperationLog) error {
	f.inserted = append(f.inserted, l)
	return nil
}

func (f *fakeLogRepo) List(_ context.Context, _ entities.OperationLogFilter, page types.Page) ([]entities.OperationLog, uint64, error) {
	f.lastPage = page
	return f.inserted, uint64(len(f.inserted)), nil
}

func (f *fakeLogRepo) DeleteOlderThan(_ context.Context, _ time.Time, batch int) (int64, error) {
	n := int64(batch)
	if f.remaining < n {
		n = f.remaining
	}
	f.remaining -= n
	f.batches = append(f.batches, n)
	return n, nil
}

func (f *fakeLogRepo) CountOlderThan(context.Context, time.Time) (uint64, error) {
	return uint64(f.remaining), nil
}

type fakeCache struct {
	data   map[string]string
	gets   int
	dels   []string
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		f.data[key] = fmt.Sprint(v)
	}
	return nil
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.gets++
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
		f.dels = append(f.dels, k)
	}
	return nil
}

func (f *fakeCache) Incr(_ context.Context, key string) (int64, error) {
	var n int64
	fmt.Sscan(f.data[key], &n)
	n++
	f.data[key] = fmt.Sprint(n)
	return n, nil
}

func (f *fakeCache) Expire(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

type fakeUserRepo struct {
	users   map[uint64]*entities.User
	renamed map[uint64]string
}

func newFakeUserRepo(users ...*entities.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uint64]*entities.User{}, renamed: map[uint64]string{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uint64) (*entities.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*entities.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, _ pgx.Tx, u entities.User) (uint64, error) {
	u.ID = uint64(len(f.users) + 1)
	f.users[u.ID] = &u
	return u.ID, nil
}

func (f *fakeUserRepo) UpdateRealName(_ context.Context, id uint64, realName string) error {
	u, ok := f.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.RealName = realName
	f.renamed[id] = realName
	return nil
}

type fakeAddressRepo struct {
	addresses map[uint64]*entities.Address
	buildings []string
	rooms     []entities.Address
	updates   []entities.ResidentUpdate
	lastScope *int
}

func newFakeAddressRepo(addresses ...*entities.Address) *fakeAddressRepo {
	r := &fakeAddressRepo{addresses: map[uint64]*entities.Address{}}
	for _, a := range addresses {
		r.addresses[a.ID] = a
	}
	return r
}

func (f *fakeAddressRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.Address, error) {
	a, ok := f.addresses[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAddressRepo) ListBuildings(_ context.Context, communityNumber *int) ([]string, error) {
	f.lastScope = communityNumber
	return append([]string(nil), f.buildings...), nil
}

func (f *fakeAddressRepo) ListRooms(_ context.Context, communityNumber *int, _ string) ([]entities.Address, error) {
	f.lastScope = communityNumber
	return append([]entities.Address(nil), f.rooms...), nil
}

func (f *fakeAddressRepo) UpdateResident(_ context.Context, _ pgx.Tx, id uint64, upd entities.ResidentUpdate) error {
	a, ok := f.addresses[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if upd.Name != nil {
		a.ResidentName = upd.Name
	}
	if upd.Phone != nil {
		a.ResidentPhone = upd.Phone
	}
	f.updates = append(f.updates, upd)
	return nil
}

type fakeOrderRepo struct {
	orders            map[uint64]*entities.Order
	details           map[uint64]*entities.OrderDetail
	nextID            uint64
	updateReversalErr error
	lastFilter        entities.OrderFilter
	lastQuery         entities.OrderQuery
	queryRows         []entities.DetailedOrderRow
	historyLimit      uint64
}

func newFakeOrderRepo(orders ...*entities.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: map[uint64]*entities.Order{}, details: map[uint64]*entities.OrderDetail{}, nextID: 100}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (f *fakeOrderRepo) Create(_ context.Context, _ pgx.Tx, o *entities.Order) (uint64, error) {
	f.nextID++
	cp := *o
	cp.ID = f.nextID
	f.orders[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) FindDetail(_ context.Context, id uint64) (*entities.OrderDetail, error) {
	d, ok := f.details[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return d, nil
}

func (f *fakeOrderRepo) List(_ context.Context, filter entities.OrderFilter, _ types.Page) ([]entities.Order, uint64, error) {
	f.lastFilter = filter
	var result []entities.Order
	for _, o := range f.orders {
		if filter.CommunityID != nil && o.CommunityID != *filter.CommunityID {
			continue
		}
		result = append(result, *o)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, uint64(len(result)), nil
}

func (f *fakeOrderRepo) Query(_ context.Context, q entities.OrderQuery, _ types.Page) ([]entities.DetailedOrderRow, uint64, error) {
	f.lastQuery = q
	return f.queryRows, uint64(len(f.queryRows)), nil
}

func (f *fakeOrderRepo) ListByAddress(_ context.Context, communityID *int, addressID uint64, limit uint64) ([]entities.Order, error) {
	f.historyLimit = limit
	var result []entities.Order
	for _, o := range f.orders {
		if o.AddressID != addressID || (communityID != nil && o.CommunityID != *communityID) {
			continue
		}
		result = append(result, *o)
	}
	return result, nil
}

func (f *fakeOrderRepo) UpdateReversal(_ context.Context, _ pgx.Tx, id uint64, remark string, flag int) error {
	if f.updateReversalErr != nil {
		return f.updateReversalErr
	}
	o, ok := f.orders[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	o.Remark = remark
	o.ReversalFlag = flag
	return nil
}

func (f *fakeOrderRepo) Delete(_ context.Context, _ pgx.Tx, id uint64) error {
	if _, ok := f.orders[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

type fakeCommunityRepo struct {
	byName     map[string]entities.Community
	registered []entities.Community
}

func newFakeCommunityRepo(communities ...entities.Community) *fakeCommunityRepo {
	r := &fakeCommunityRepo{byName: map[string]entities.Community{}}
	for _, c := range communities {
		r.byName[c.Name] = c
	}
	return r
}

func (f *fakeCommunityRepo) FindByName(_ context.Context, _ pgx.Tx, name string) (*entities.Community, error) {
	c, ok := f.byName[name]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCommunityRepo) FindByNumber(_ context.Context, _ pgx.Tx, number int) (*entities.Community, error) {
	for _, c := range f.byName {
		if c.Number == number {
			cp := c
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeCommunityRepo) Register(_ context.Context, _ pgx.Tx, c entities.Community) error {
	f.byName[c.Name] = c
	f.registered = append(f.registered, c)
	return nil
}

func (f *fakeCommunityRepo) ListNames(context.Context) ([]string, error) {
	names := make([]string, 0, len(f.byName))
	for n := range f.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

type fakePriceRepo struct {
	prices  map[int]*entities.FeePrice
	finds   int
	upserts []entities.FeePrice
}

func newFakePriceRepo(prices ...*entities.FeePrice) *fakePriceRepo {
	r := &fakePriceRepo{prices: map[int]*entities.FeePrice{}}
	for _, p := range prices {
		r.prices[p.CommunityNumber] = p
	}
	return r
}

func (f *fakePriceRepo) FindByCommunityNumber(_ context.Context, _ pgx.Tx, number int) (*entities.FeePrice, error) {
	f.finds++
	p, ok := f.prices[number]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePriceRepo) FindByCommunityName(_ context.Context, _ pgx.Tx, name string) (*entities.FeePrice, error) {
	for _, p := range f.prices {
		if p.CommunityName == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakePriceRepo) List(_ context.Context, nameFilter string, _ types.Page) ([]entities.FeePrice, uint64, error) {
	var result []entities.FeePrice
	for _, p := range f.prices {
		if nameFilter == "" || strings.Contains(p.CommunityName, nameFilter) {
			result = append(result, *p)
		}
	}
	return result, uint64(len(result)), nil
}

func (f *fakePriceRepo) ListAll(context.Context) ([]entities.FeePrice, error) {
	result := make([]entities.FeePrice, 0, len(f.prices))
	for _, p := range f.prices {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CommunityName < result[j].CommunityName })
	return result, nil
}

func (f *fakePriceRepo) Create(_ context.Context, _ pgx.Tx, p entities.FeePrice) (uint64, error) {
	p.ID = uint64(len(f.prices) + 1)
	f.prices[p.CommunityNumber] = &p
	return p.ID, nil
}

func (f *fakePriceRepo) Update(_ context.Context, _ pgx.Tx, communityNumber int, changes entities.PriceChanges) error {
	p, ok := f.prices[communityNumber]
	if !ok {
		return apperrors.ErrNotFound
	}
	for c, v := range changes {
		p.SetPrice(c, v)
	}
	return nil
}

func (f *fakePriceRepo) Upsert(_ context.Context, _ pgx.Tx, p entities.FeePrice) (bool, error) {
	f.upserts = append(f.upserts, p)
	_, existed := f.prices[p.CommunityNumber]
	f.prices[p.CommunityNumber] = &p
	return !existed, nil
}

func (f *fakePriceRepo) Delete(_ context.Context, _ pgx.Tx, communityNumber int) error {
	if _, ok := f.prices[communityNumber]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.prices, communityNumber)
	return nil
}

type fakeReportRepo struct {
	totals       func(entities.ReportFilter) entities.OrderTotals
	points       []entities.OrderPoint
	paymentStats []entities.PaymentStat
	feeStats     []entities.FeeTypeStat
	detailed     []entities.DetailedOrderRow
	filters      []entities.ReportFilter
	lastDetailed entities.DetailedOrderFilter
	lastPage     types.Page
}

func (f *fakeReportRepo) Totals(_ context.Context, filter entities.ReportFilter) (entities.OrderTotals, error) {
	f.filters = append(f.filters, filter)
	if f.totals == nil {
		return entities.OrderTotals{}, nil
	}
	return f.totals(filter), nil
}

func (f *fakeReportRepo) Points(_ context.Context, filter entities.ReportFilter) ([]entities.OrderPoint, error) {
	f.filters = append(f.filters, filter)
	return f.points, nil
}

func (f *fakeReportRepo) PaymentStats(_ context.Context, filter entities.ReportFilter) ([]entities.PaymentStat, error) {
	f.filters = append(f.filters, filter)
	return f.paymentStats, nil
}

func (f *fakeReportRepo) FeeTypeStats(_ context.Context, filter entities.ReportFilter) ([]entities.FeeTypeStat, error) {
	f.filters = append(f.filters, filter)
	return f.feeStats, nil
}

func (f *fakeReportRepo) Detailed(_ context.Context, filter entities.DetailedOrderFilter, page types.Page) ([]entities.DetailedOrderRow, uint64, error) {
	f.lastDetailed = filter
	f.lastPage = page
	return f.detailed, uint64(len(f.detailed)), nil
}

type staticBillNumbers struct {
	n int
}

func (s *staticBillNumbers) Next() string {
	s.n++
	return fmt.Sprintf("WD20250101120000%03d", 100+s.n)
}

func adminUser() *entities.User {
	return &entities.User{ID: 1, Username: "admin", RealName: "管理员", Role: entities.RoleAdministrator,
		CommunityNumber: 1, CommunityName: "总部", CanEdit: true, CanRead: true, CanReport: true}
}

func operatorUser(community int) *entities.User {
	return &entities.User{ID: 2, Username: "op", RealName: "张三", Role: entities.RoleOperator,
		CommunityNumber: community, CommunityName: fmt.Sprintf("小区%d", community), CanEdit: true, CanRead: true}
}

func strPtr(s string) *string { return &s }
