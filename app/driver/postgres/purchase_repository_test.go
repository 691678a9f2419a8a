package postgres

import (
	"context"
	"testing"

	"modelhub/app/domain"
	"modelhub/app/utils/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPurchaseRepository(t *testing.T) (*PurchaseRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)

	testLogger, err := logger.New("debug")
	require.NoError(t, err)

	repo := NewPurchaseRepository(mockDB, testLogger).(*PurchaseRepository)

	return repo, mockDB
}

func createTestPurchase(t *testing.T) *domain.Purchase {
	t.Helper()

	model := createTestModel(t)
	purchase, err := domain.NewPurchase(model, "Buyer@Example.com")
	require.NoError(t, err)

	return purchase
}

func TestPurchaseRepository_Create(t *testing.T) {
	tests := []struct {
		name     string
		setupDB  func(pgxmock.PgxPoolIface, *domain.Purchase)
		wantErr  bool
		errorMsg string
	}{
		{
			name: "successful purchase creation",
			setupDB: func(mockDB pgxmock.PgxPoolIface, purchase *domain.Purchase) {
				mockDB.ExpectExec("INSERT INTO purchases").
					WithArgs(
						purchase.ID, purchase.ModelID, "buyer@example.com",
						purchase.CreatorEmail, purchase.ModelName, purchase.Framework,
						purchase.ImageURL, purchase.Price, purchase.PurchasedAt,
					).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			wantErr: false,
		},
		{
			name: "repeat purchase hits the conflict clause without error",
			setupDB: func(mockDB pgxmock.PgxPoolIface, purchase *domain.Purchase) {
				mockDB.ExpectExec("INSERT INTO purchases").
					WithArgs(
						purchase.ID, purchase.ModelID, "buyer@example.com",
						purchase.CreatorEmail, purchase.ModelName, purchase.Framework,
						purchase.ImageURL, purchase.Price, purchase.PurchasedAt,
					).
					WillReturnResult(pgxmock.NewResult("INSERT", 0))
			},
			wantErr: false,
		},
		{
			name: "database error during creation",
			setupDB: func(mockDB pgxmock.PgxPoolIface, purchase *domain.Purchase) {
				mockDB.ExpectExec("INSERT INTO purchases").
					WithArgs(
						purchase.ID, purchase.ModelID, "buyer@example.com",
						purchase.CreatorEmail, purchase.ModelName, purchase.Framework,
						purchase.ImageURL, purchase.Price, purchase.PurchasedAt,
					).
					WillReturnError(pgx.ErrTxClosed)
			},
			wantErr:  true,
			errorMsg: "failed to insert purchase",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mockDB := createTestPurchaseRepository(t)
			defer mockDB.Close()

			purchase := createTestPurchase(t)
			tt.setupDB(mockDB, purchase)

			err := repo.Create(context.Background(), purchase)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mockDB.ExpectationsWereMet())
		})
	}
}

func TestPurchaseRepository_Exists(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		setupDB    func(pgxmock.PgxPoolIface, uuid.UUID)
		wantExists bool
		wantErr    bool
	}{
		{
			name:  "purchase exists",
			email: "buyer@example.com",
			setupDB: func(mockDB pgxmock.PgxPoolIface, modelID uuid.UUID) {
				mockDB.ExpectQuery("SELECT EXISTS").
					WithArgs(modelID, "buyer@example.com").
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
			},
			wantExists: true,
		},
		{
			name:  "email is normalized before lookup",
			email: "Buyer@Example.COM",
			setupDB: func(mockDB pgxmock.PgxPoolIface, modelID uuid.UUID) {
				mockDB.ExpectQuery("SELECT EXISTS").
					WithArgs(modelID, "buyer@example.com").
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
			},
			wantExists: false,
		},
		{
			name:  "database error",
			email: "buyer@example.com",
			setupDB: func(mockDB pgxmock.PgxPoolIface, modelID uuid.UUID) {
				mockDB.ExpectQuery("SELECT EXISTS").
					WithArgs(modelID, "buyer@example.com").
					WillReturnError(pgx.ErrTxClosed)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mockDB := createTestPurchaseRepository(t)
			defer mockDB.Close()

			modelID := uuid.New()
			tt.setupDB(mockDB, modelID)

			exists, err := repo.Exists(context.Background(), modelID, tt.email)

			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, exists)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantExists, exists)
			}

			assert.NoError(t, mockDB.ExpectationsWereMet())
		})
	}
}

func TestPurchaseRepository_ListByPurchaser(t *testing.T) {
	purchaseRows := func(purchases ...*domain.Purchase) *pgxmock.Rows {
		rows := pgxmock.NewRows([]string{
			"id", "model_id", "purchaser_email", "creator_email",
			"model_name", "framework", "image_url", "price", "purchased_at",
		})
		for _, p := range purchases {
			rows.AddRow(
				p.ID, p.ModelID, p.PurchaserEmail, p.CreatorEmail,
				p.ModelName, p.Framework, p.ImageURL, p.Price, p.PurchasedAt,
			)
		}
		return rows
	}

	tests := []struct {
		name      string
		setupDB   func(pgxmock.PgxPoolIface)
		wantErr   bool
		wantCount int
	}{
		{
			name: "returns purchases newest first",
			setupDB: func(mockDB pgxmock.PgxPoolIface) {
				mockDB.ExpectQuery("SELECT(.+)FROM purchases(.+)WHERE purchaser_email(.+)ORDER BY purchased_at DESC").
					WithArgs("buyer@example.com").
					WillReturnRows(purchaseRows(createTestPurchase(t), createTestPurchase(t)))
			},
			wantCount: 2,
		},
		{
			name: "no purchases yields empty slice",
			setupDB: func(mockDB pgxmock.PgxPoolIface) {
				mockDB.ExpectQuery("SELECT(.+)FROM purchases(.+)WHERE purchaser_email(.+)ORDER BY purchased_at DESC").
					WithArgs("buyer@example.com").
					WillReturnRows(purchaseRows())
			},
			wantCount: 0,
		},
		{
			name: "database error",
			setupDB: func(mockDB pgxmock.PgxPoolIface) {
				mockDB.ExpectQuery("SELECT(.+)FROM purchases(.+)WHERE purchaser_email(.+)ORDER BY purchased_at DESC").
					WithArgs("buyer@example.com").
					WillReturnError(pgx.ErrTxClosed)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mockDB := createTestPurchaseRepository(t)
			defer mockDB.Close()

			tt.setupDB(mockDB)

			purchases, err := repo.ListByPurchaser(context.Background(), "Buyer@Example.com")

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, purchases)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, purchases)
				assert.Len(t, purchases, tt.wantCount)
			}

			assert.NoError(t, mockDB.ExpectationsWereMet())
		})
	}
}
