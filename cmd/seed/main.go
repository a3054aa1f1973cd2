package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"store-backend/internal/config"
	"store-backend/internal/database/migrations"
	"store-backend/internal/models"
)

// Resets the schema and loads sample data for local development.
func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment variables")
	}
	cfg := config.Load()
	if cfg.Database.DSN == "" {
		log.Fatal("POSTGRES_DSN not set")
	}

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL: %v", err)
	}
	defer sqldb.Close()
	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	runner := migrations.NewRunner(db, migrations.DefaultOptions())
	log.Println("Rolling back schema...")
	if err := runner.MigrateDown(); err != nil {
		log.Fatalf("Migration down failed: %v", err)
	}
	log.Println("Applying schema...")
	if err := runner.RunMigrations(); err != nil {
		log.Fatalf("Migration up failed: %v", err)
	}

	log.Println("Seeding sample data...")
	if err := seedData(ctx, db); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Done.")
}

type customer struct {
	bun.BaseModel `bun:"table:customers"`

	CustomerID int64  `bun:"customer_id,pk,autoincrement"`
	Name       string `bun:"name,notnull"`
	Email      string `bun:"email,unique,notnull"`
	Phone      string `bun:"phone,nullzero"`
	Address    string `bun:"address,nullzero"`
}

type user struct {
	bun.BaseModel `bun:"table:users"`

	UserID   int64  `bun:"user_id,pk,autoincrement"`
	Username string `bun:"username,unique,notnull"`
	FullName string `bun:"full_name,nullzero"`
	Role     string `bun:"role,notnull"`
}

func seedData(ctx context.Context, db *bun.DB) error {
	customers := []customer{
		{Name: "Linh Tran", Email: "linh.tran@example.com", Phone: "0901000001"},
		{Name: "Minh Pham", Email: "minh.pham@example.com", Phone: "0901000002"},
	}
	if _, err := db.NewInsert().Model(&customers).Exec(ctx); err != nil {
		return err
	}

	users := []user{
		{Username: "manager", FullName: "Store Manager", Role: "staff"},
		{Username: "cashier1", FullName: "Front Cashier", Role: "staff"},
	}
	if _, err := db.NewInsert().Model(&users).Exec(ctx); err != nil {
		return err
	}

	products := []models.Product{
		{ProductName: "Coffee beans 500g", Barcode: "8930000000017", Unit: "bag", Price: 12.50},
		{ProductName: "Filter papers", Barcode: "8930000000024", Unit: "box", Price: 3.20},
		{ProductName: "Ceramic mug", Barcode: "8930000000031", Unit: "pc", Price: 6.80},
	}
	if _, err := db.NewInsert().Model(&products).Exec(ctx); err != nil {
		return err
	}

	inventories := make([]models.Inventory, 0, len(products))
	for _, p := range products {
		inventories = append(inventories, models.Inventory{
			ProductID: p.ProductID,
			Quantity:  100,
			UpdatedAt: time.Now(),
		})
	}
	if _, err := db.NewInsert().Model(&inventories).Exec(ctx); err != nil {
		return err
	}

	now := time.Now()
	promos := []models.Promotion{
		{
			PromoID:       uuid.NewString(),
			PromoCode:     "WELCOME10",
			Description:   "10% off for new customers",
			DiscountType:  models.DiscountPercent,
			DiscountValue: 10,
			StartDate:     now.AddDate(0, 0, -7),
			EndDate:       now.AddDate(0, 1, 0),
			UsageLimit:    100,
			Status:        models.PromoActive,
		},
		{
			PromoID:        uuid.NewString(),
			PromoCode:      "FLAT5",
			Description:    "5 off orders over 50",
			DiscountType:   models.DiscountFixed,
			DiscountValue:  5,
			StartDate:      now.AddDate(0, 0, -7),
			EndDate:        now.AddDate(0, 1, 0),
			MinOrderAmount: 50,
			UsageLimit:     50,
			Status:         models.PromoActive,
		},
	}
	_, err := db.NewInsert().Model(&promos).Exec(ctx)
	return err
}
