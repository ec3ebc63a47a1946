package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"property-billing/internal/entities"
)

var (
	buildingNumberRe = regexp.MustCompile(`^(\d+)(号楼)?$`)
	digitsOnlyRe     = regexp.MustCompile(`^\d+$`)
)

type naturalKey struct {
	group  int
	number uint64
	text   string
}

func (a naturalKey) less(b naturalKey) bool {
	if a.group != b.group {
		return a.group < b.group
	}
	if a.number != b.number {
		return a.number < b.number
	}
	return a.text < b.text
}

// buildingKey: «12» и «12号楼» по номеру, остальные после них без учёта регистра.
func buildingKey(label string) naturalKey {
	if m := buildingNumberRe.FindStringSubmatch(label); m != nil {
		if n, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			return naturalKey{group: 0, number: n, text: label}
		}
	}
	return naturalKey{group: 1, text: strings.ToLower(label)}
}

// roomKey: чисто цифровые номера по значению, остальные лексикографически.
func roomKey(label string) naturalKey {
	if digitsOnlyRe.MatchString(label) {
		if n, err := strconv.ParseUint(label, 10, 64); err == nil {
			return naturalKey{group: 0, number: n, text: label}
		}
	}
	return naturalKey{group: 1, text: label}
}

func SortBuildings(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		return buildingKey(labels[i]).less(buildingKey(labels[j]))
	})
}

func SortRoomLabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		return roomKey(labels[i]).less(roomKey(labels[j]))
	})
}

func sortRooms(list []entities.Address) {
	sort.SliceStable(list, func(i, j int) bool {
		return roomKey(list[i].Room).less(roomKey(list[j].Room))
	})
}
