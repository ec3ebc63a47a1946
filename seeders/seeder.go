package seeders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"property-billing/internal/entities"
	"property-billing/pkg/utils"
)

// SeedCommunities создаёт справочник комплексов. Повторный запуск ничего не меняет.
func SeedCommunities(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	logger.Info("▶️  Наполнение справочника комплексов")
	for _, c := range communitiesData {
		if _, err := db.Exec(ctx,
			"INSERT INTO communities (number, name) VALUES ($1, $2) ON CONFLICT (number) DO NOTHING",
			c.Number, c.Name); err != nil {
			return fmt.Errorf("комплекс %q: %w", c.Name, err)
		}
	}
	logger.Info("✅ Комплексы готовы", zap.Int("count", len(communitiesData)))
	return nil
}

// SeedPrices задаёт тарифы демонстрационных комплексов, не трогая уже существующие.
func SeedPrices(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	logger.Info("▶️  Наполнение тарифов")
	for _, p := range pricesData {
		_, err := db.Exec(ctx, `
			INSERT INTO fee_prices (community_number, electricity, cold_water, hot_water, network, parking, rent, management)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (community_number) DO NOTHING`,
			p.CommunityNumber,
			mustDecimal(p.Electricity), mustDecimal(p.ColdWater), mustDecimal(p.HotWater),
			mustDecimal(p.Network), mustDecimal(p.Parking), mustDecimal(p.Rent), mustDecimal(p.Management),
		)
		if err != nil {
			return fmt.Errorf("тарифы комплекса %d: %w", p.CommunityNumber, err)
		}
	}
	logger.Info("✅ Тарифы готовы", zap.Int("count", len(pricesData)))
	return nil
}

// SeedAddresses заводит демонстрационные корпуса и квартиры.
func SeedAddresses(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	logger.Info("▶️  Наполнение адресов")
	created := 0
	for _, a := range addressesData {
		for _, room := range a.Rooms {
			tag, err := db.Exec(ctx, `
				INSERT INTO addresses (community_number, building, room)
				SELECT $1, $2, $3
				WHERE NOT EXISTS (
					SELECT 1 FROM addresses WHERE community_number = $1 AND building = $2 AND room = $3
				)`, a.CommunityNumber, a.Building, room)
			if err != nil {
				return fmt.Errorf("адрес %s-%s: %w", a.Building, room, err)
			}
			created += int(tag.RowsAffected())
		}
	}
	logger.Info("✅ Адреса готовы", zap.Int("created", created))
	return nil
}

// SeedAdmin создаёт администратора, если пользователя с таким логином ещё нет.
func SeedAdmin(ctx context.Context, db *pgxpool.Pool, username, password string, logger *zap.Logger) error {
	logger.Info("▶️  Создание администратора", zap.String("username", username))
	if password == "" {
		return errors.New("пароль администратора не задан")
	}

	var id uint64
	err := db.QueryRow(ctx, "SELECT id FROM users WHERE username = $1", username).Scan(&id)
	if err == nil {
		logger.Info("    - Администратор уже существует. Пропускаем.", zap.Uint64("id", id))
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("ошибка при проверке существования пользователя: %w", err)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	err = db.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, real_name, community_number, role, can_edit, can_read, can_report)
		VALUES ($1, $2, $3, $4, $5, TRUE, TRUE, TRUE) RETURNING id`,
		username, hashed, "系统管理员", HeadquartersNumber, string(entities.RoleAdministrator),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("не удалось создать администратора: %w", err)
	}

	logger.Info("✅ Администратор создан", zap.Uint64("id", id))
	return nil
}
