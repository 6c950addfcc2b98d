package services

import (
	"fmt"
	"strings"
	"testing"

	"reward-economy-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database per test. MaxOpenConns(1)
// keeps SQLite from throwing busy errors at the concurrency tests while the
// unique indexes still arbitrate duplicate writes exactly like Postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Account{},
		&models.LedgerEntry{},
		&models.ItemDefinition{},
		&models.InventoryEntry{},
		&models.TaskDefinition{},
		&models.TaskCompletion{},
		&models.AdRewardReceipt{},
		&models.PvpEncounter{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testConfig() EconomyConfig {
	return EconomyConfig{
		CheckInBase:      50,
		CheckInIncrement: 10,
		CheckInCap:       7,
		CheckInCapBonus:  1,

		ReferralWelcomeBonus:  200,
		ReferralReferrerBonus: 500,

		AdRewardAmount: 25,

		MinTargetBalance: 100,
		TargetPoolSize:   50,
		StealPercent:     10,
		MaxSteal:         1000,
		WinChancePercent: 50,
		LossPenalty:      50,
		FakeBalanceMin:   1,
		FakeBalanceMax:   500,
	}
}

func mustCreateAccount(t *testing.T, db *gorm.DB, identity string, balance int64) *models.Account {
	t.Helper()
	acct := models.Account{
		ID:          uuid.NewString(),
		Identity:    identity,
		DisplayName: identity,
		Balance:     balance,
		Role:        models.RoleUser,
	}
	if err := db.Create(&acct).Error; err != nil {
		t.Fatalf("create account %s: %v", identity, err)
	}
	return &acct
}

func mustGrantItem(t *testing.T, db *gorm.DB, identity, itemCode string, qty int64) {
	t.Helper()
	entry := models.InventoryEntry{
		ID:       uuid.NewString(),
		Identity: identity,
		ItemCode: itemCode,
		Quantity: qty,
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("grant %s to %s: %v", itemCode, identity, err)
	}
}

func mustCreateTask(t *testing.T, db *gorm.DB, title string, reward int64, active bool) *models.TaskDefinition {
	t.Helper()
	task := models.TaskDefinition{
		ID:     uuid.NewString(),
		Slug:   strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Title:  title,
		Reward: reward,
		Active: active,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("create task %s: %v", title, err)
	}
	return &task
}

func accountBalance(t *testing.T, db *gorm.DB, identity string) int64 {
	t.Helper()
	var acct models.Account
	if err := db.Where("identity = ?", identity).First(&acct).Error; err != nil {
		t.Fatalf("fetch account %s: %v", identity, err)
	}
	return acct.Balance
}

func itemQty(t *testing.T, db *gorm.DB, identity, itemCode string) int64 {
	t.Helper()
	qty, err := NewLedgerService(db).ItemQuantity(db, identity, itemCode)
	if err != nil {
		t.Fatalf("fetch %s quantity for %s: %v", itemCode, identity, err)
	}
	return qty
}
