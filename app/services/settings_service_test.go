package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"PosPrint/app/database"
	"PosPrint/app/models"
	"PosPrint/app/printer"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db
}

func TestSettingsServiceDefaults(t *testing.T) {
	svc := NewSettingsService(newTestDB(t))

	settings, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRestaurantSettings(), settings)

	target, err := svc.Target(context.Background(), models.RoleKitchen)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.200:9100", target.Addr())
}

func TestSettingsServiceSaveAndResolve(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(newTestDB(t))

	settings := models.DefaultRestaurantSettings()
	settings.AccountNo = "0123-456-789"
	settings.Printer2 = "192.168.1.201"
	settings.PaymentPrinterID = models.SlotPrinter2
	settings.IsVATEnabled = true
	require.NoError(t, svc.Save(ctx, settings))

	target, err := svc.Target(ctx, models.RolePayment)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.201", target.IP)
	assert.Equal(t, models.RolePayment, target.Role)

	rs, err := svc.ReceiptSettings(ctx)
	require.NoError(t, err)
	assert.True(t, rs.VATEnabled)
	require.NotNil(t, rs.Bank)
	assert.Equal(t, "970422", rs.Bank.BIN)
	assert.Equal(t, "0123456789", rs.Bank.AccountNo)
}

func TestReceiptSettingsWithoutAccount(t *testing.T) {
	rs := ReceiptSettingsFrom(models.DefaultRestaurantSettings())
	assert.Nil(t, rs.Bank)

	settings := models.DefaultRestaurantSettings()
	settings.BankID = "NOTABANK"
	settings.AccountNo = "123"
	assert.Nil(t, ReceiptSettingsFrom(settings).Bank)
}

func TestTargetFromConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.RestaurantSettings)
		role   models.PrinterRole
		reason string
	}{
		{name: "unknown role", role: "bar", mutate: func(*models.RestaurantSettings) {}, reason: "unknown printer role"},
		{name: "unassigned", role: models.RoleKitchen, mutate: func(s *models.RestaurantSettings) { s.KitchenPrinterID = "" }, reason: "no printer assigned"},
		{name: "slot without ip", role: models.RolePayment, mutate: func(s *models.RestaurantSettings) { s.PaymentPrinterID = models.SlotPrinter2 }, reason: "printer2 has no IP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := models.DefaultRestaurantSettings()
			tt.mutate(&settings)

			_, err := TargetFrom(settings, tt.role)
			var cfgErr *printer.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, cfgErr.Reason, tt.reason)
		})
	}
}

func TestServicesWithoutDatabase(t *testing.T) {
	_, err := NewSettingsService(nil).Load(context.Background())
	assert.ErrorIs(t, err, ErrDatabaseNotInitialized)
	_, err = NewMenuService(nil).Lookup(context.Background())
	assert.ErrorIs(t, err, ErrDatabaseNotInitialized)
}

func TestMenuServiceLookup(t *testing.T) {
	ctx := context.Background()
	svc := NewMenuService(newTestDB(t))

	seafood := models.Category{Name: "Hải sản"}
	require.NoError(t, svc.CreateCategory(ctx, &seafood))
	require.NoError(t, svc.UpsertItems(ctx,
		models.MenuItem{ID: 2, Name: "Bia Sài Gòn", Price: 20000},
		models.MenuItem{ID: 1, Name: "Ốc hương", Price: 85000, CategoryID: &seafood.ID},
	))
	require.NoError(t, svc.UpsertItems(ctx, models.MenuItem{ID: 2, Name: "Bia Sài Gòn", Price: 22000}))

	menu, err := svc.Lookup(ctx)
	require.NoError(t, err)
	require.Len(t, menu, 2)

	item, ok := menu.LookupItem(1)
	require.True(t, ok)
	assert.Equal(t, "Hải sản", item.CategoryName())

	beer, _ := menu.LookupItem(2)
	assert.Equal(t, int64(22000), beer.Price)

	_, ok = menu.LookupItem(3)
	assert.False(t, ok)
}
