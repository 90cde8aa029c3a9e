package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"lendahand-backend/internal/config"
	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/logger"
	"lendahand-backend/internal/repository/postgres"
	"lendahand-backend/internal/security"
	"lendahand-backend/internal/service"
)

type User struct {
	Email          string `yaml:"email"`
	Password       string `yaml:"password"`
	Name           string `yaml:"name"`
	Phone          string `yaml:"phone"`
	Address        string `yaml:"address"`
	Role           string `yaml:"role"`
	OpeningBalance string `yaml:"opening_balance"`
}

type Item struct {
	LenderEmail  string   `yaml:"lender_email"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Location     string   `yaml:"location"`
	DailyDeposit string   `yaml:"daily_deposit"`
	MinDays      int32    `yaml:"min_days"`
	MaxDays      int32    `yaml:"max_days"`
	Images       []string `yaml:"images"`
}

type SetupData struct {
	Users []User `yaml:"users"`
	Items []Item `yaml:"items"`
}

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	setupFile := flag.String("data", "cmd/seed/seed.yaml", "Path to the seed data file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	setupData, err := readSetupFile(*setupFile)
	if err != nil {
		log.Fatalf("Failed to read setup file: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	store := postgres.NewStore(db)
	users := service.NewUserService(store, service.NewLedger())
	tokens := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	if err := populateData(context.Background(), store, users, tokens, setupData); err != nil {
		log.Fatalf("Failed to populate data: %v", err)
	}
	log.Println("✅ Seed data successfully populated!")
}

func readSetupFile(filename string) (*SetupData, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var setupData SetupData
	if err := yaml.Unmarshal(data, &setupData); err != nil {
		return nil, err
	}
	return &setupData, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func populateData(ctx context.Context, store *postgres.Store, users service.UserService, tokens security.TokenManager, data *SetupData) error {
	lenders := make(map[string]int32, len(data.Users))

	for i, u := range data.Users {
		log.Printf("Creating user %d/%d: %s (%s)", i+1, len(data.Users), u.Name, u.Email)

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", u.Email, err)
		}
		balance, err := parseAmount(u.OpeningBalance)
		if err != nil {
			return fmt.Errorf("invalid opening balance for %s: %w", u.Email, err)
		}

		user := &domain.User{
			FullName:     u.Name,
			Email:        u.Email,
			PasswordHash: string(passwordHash),
			Phone:        u.Phone,
			Address:      u.Address,
			Role:         domain.UserRole(u.Role),
		}
		wallet, err := users.CreateUser(ctx, user, balance)
		if err != nil {
			return fmt.Errorf("failed to create user %s: %w", u.Email, err)
		}
		lenders[user.Email] = user.ID

		token, err := tokens.GenerateAccessToken(user.ID, user.Email, string(user.Role))
		if err != nil {
			return fmt.Errorf("failed to issue token for %s: %w", u.Email, err)
		}
		log.Printf("  ✓ User created with ID: %d, Role: %s, Balance: %s", user.ID, user.Role, wallet.Balance.StringFixed(2))
		fmt.Printf("%s\t%s\n", user.Email, token)
	}

	uow, err := store.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	for _, it := range data.Items {
		lenderID, ok := lenders[it.LenderEmail]
		if !ok {
			return fmt.Errorf("item %q: unknown lender %s", it.Title, it.LenderEmail)
		}
		daily, err := decimal.NewFromString(it.DailyDeposit)
		if err != nil {
			return fmt.Errorf("item %q: invalid daily deposit: %w", it.Title, err)
		}
		item := &domain.Item{
			LenderID:     lenderID,
			Title:        it.Title,
			Description:  it.Description,
			Location:     it.Location,
			DailyDeposit: daily,
			MinDays:      it.MinDays,
			MaxDays:      it.MaxDays,
			Images:       it.Images,
			IsActive:     true,
		}
		if err := uow.Items().Create(ctx, item); err != nil {
			return fmt.Errorf("failed to create item %q: %w", it.Title, err)
		}
		log.Printf("  ✓ Item created with ID: %d (%s)", item.ID, item.Title)
	}
	return uow.Commit()
}
