// Command seed fills a development database with a demo catalogue (clients,
// parts, used phones) and prints a staff token for calling the API.
//
//	go run ./cmd/seed -products 40 -role owner
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"repairpos/internal/config"
	"repairpos/internal/infra"
	"repairpos/internal/middleware"
	"repairpos/internal/model"
	"repairpos/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	nProducts := flag.Int("products", 30, "parts and accessories to create")
	nPhones := flag.Int("phones", 10, "used phones to create")
	nClients := flag.Int("clients", 15, "clients to create")
	role := flag.String("role", middleware.RoleOwner, "role of the printed token")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	ctx := context.Background()
	products := repository.NewProductRepository(db)
	phones := repository.NewPhoneRepository(db)
	clients := repository.NewClientRepository(db)

	for i := 0; i < *nClients; i++ {
		c := &model.Client{Name: gofakeit.Name(), Phone: gofakeit.Phone()}
		if i%2 == 0 {
			email := gofakeit.Email()
			c.Email = &email
		}
		if err := clients.Create(ctx, c); err != nil {
			log.Fatal().Err(err).Msg("seed clients")
		}
	}

	brands := []string{"Apple", "Samsung", "Xiaomi", "Google", "OnePlus"}
	parts := []string{"Screen", "Battery", "Charging port", "Back glass", "Camera module", "Speaker", "Case", "Charger"}
	for i := 0; i < *nProducts; i++ {
		cost := gofakeit.Price(2, 80)
		p := &model.Product{
			Name:          fmt.Sprintf("%s %s %s", gofakeit.RandomString(parts), gofakeit.RandomString(brands), gofakeit.Word()),
			SKU:           strings.ToUpper(gofakeit.LetterN(3)) + "-" + gofakeit.DigitN(6),
			PurchasePrice: decimal.NewFromFloat(cost).Round(2),
			Price:         decimal.NewFromFloat(cost * 1.8).Round(2),
			StockQuantity: gofakeit.Number(0, 25),
			MinStockAlert: gofakeit.Number(1, 5),
		}
		if err := products.Create(ctx, p); err != nil {
			log.Fatal().Err(err).Msg("seed products")
		}
	}

	for i := 0; i < *nPhones; i++ {
		cost := gofakeit.Price(60, 500)
		ph := &model.Phone{
			IMEI:          gofakeit.DigitN(15),
			Brand:         gofakeit.RandomString(brands),
			Model:         gofakeit.RandomString([]string{"A12", "Galaxy S21", "iPhone 12", "Redmi Note 10", "Pixel 6"}),
			Storage:       gofakeit.RandomString([]string{"64GB", "128GB", "256GB"}),
			Color:         gofakeit.SafeColor(),
			Condition:     gofakeit.RandomString([]string{"A", "B", "C"}),
			PurchasePrice: decimal.NewFromFloat(cost).Round(2),
			SellingPrice:  decimal.NewFromFloat(cost * 1.4).Round(2),
		}
		if err := phones.Create(ctx, ph); err != nil {
			log.Fatal().Err(err).Msg("seed phones")
		}
	}

	log.Info().Int("clients", *nClients).Int("products", *nProducts).Int("phones", *nPhones).Msg("seed complete")

	token, err := devToken(cfg.JWTSecret, *role)
	if err != nil {
		log.Fatal().Err(err).Msg("sign token")
	}
	fmt.Println(token)
}

func devToken(secret, role string) (string, error) {
	claims := middleware.JWTClaims{
		UserID:   gofakeit.UUID(),
		Username: "seed-" + role,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
