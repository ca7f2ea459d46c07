package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/usermgmt/accounts-api/internal/core/domain"
)

// accountModel mirrors the users table.
type accountModel struct {
	ID           int64  `gorm:"column:user_id;primaryKey;autoIncrement"`
	Role         string `gorm:"column:user_role;type:varchar(5);not null"`
	Login        string `gorm:"column:user_login;type:varchar(20);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:user_password;type:varchar(255);not null"`
}

func (accountModel) TableName() string {
	return "users"
}

func (m accountModel) toDomain() domain.Account {
	return domain.Account{
		ID:             m.ID,
		Role:           domain.Role(m.Role),
		Login:          m.Login,
		CredentialHash: m.PasswordHash,
	}
}

// advanceSequence moves the user_id sequence past explicitly restored ids.
const advanceSequence = `SELECT setval(pg_get_serial_sequence('users', 'user_id'), GREATEST((SELECT MAX(user_id) FROM users), 1))`

type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Insert(ctx context.Context, role domain.Role, login, credentialHash string) (int64, error) {
	m := accountModel{Role: string(role), Login: login, PasswordHash: credentialHash}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, domain.ErrDuplicateLogin
		}
		return 0, unavailable("insert account", err)
	}
	return m.ID, nil
}

func (s *AccountStore) FindByLogin(ctx context.Context, login string) (*domain.Account, error) {
	var m accountModel
	err := s.db.WithContext(ctx).Where("user_login = ?", login).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("find account", err)
	}
	a := m.toDomain()
	return &a, nil
}

func (s *AccountStore) DeleteByLogin(ctx context.Context, login string) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_login = ?", login).Delete(&accountModel{})
	if res.Error != nil {
		return 0, unavailable("delete account", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *AccountStore) UpdateCredentialHash(ctx context.Context, login, credentialHash string) error {
	res := s.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("user_login = ?", login).
		Update("user_password", credentialHash)
	if res.Error != nil {
		return unavailable("update credential hash", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *AccountStore) ListAll(ctx context.Context) ([]domain.Account, error) {
	var models []accountModel
	if err := s.db.WithContext(ctx).Order("user_id").Find(&models).Error; err != nil {
		return nil, unavailable("list accounts", err)
	}

	accounts := make([]domain.Account, 0, len(models))
	for _, m := range models {
		accounts = append(accounts, m.toDomain())
	}
	return accounts, nil
}

func (s *AccountStore) Restore(ctx context.Context, account domain.Account) (bool, error) {
	m := accountModel{
		ID:           account.ID,
		Role:         string(account.Role),
		Login:        account.Login,
		PasswordHash: account.CredentialHash,
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, domain.ErrDuplicateLogin
		}
		return false, unavailable("restore account", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if err := s.db.WithContext(ctx).Exec(advanceSequence).Error; err != nil {
		return true, unavailable("advance id sequence", err)
	}
	return true, nil
}

func (s *AccountStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return unavailable("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}
