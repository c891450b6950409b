package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"kofi-bridge.app/cloud/models"
	_ "github.com/mattn/go-sqlite3"
)

type Storage interface {
	InsertLicense(ctx context.Context, license *models.License) error
	FindLicensesByDeviceID(ctx context.Context, deviceID string) ([]*models.License, error)
	FindLicensesByEmail(ctx context.Context, email string) ([]*models.License, error)

	UpsertCustomerEmail(ctx context.Context, email, transactionID string, purchasedAt time.Time) error
	GetCustomerEmail(ctx context.Context, email string) (*models.CustomerEmail, error)

	Close() error
}

// MemoryStorage backs tests. Not safe for concurrent use.
type MemoryStorage struct {
	Licenses  map[string]models.License
	Customers map[string]models.CustomerEmail
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		Licenses:  make(map[string]models.License),
		Customers: make(map[string]models.CustomerEmail),
	}
}

func (m *MemoryStorage) InsertLicense(ctx context.Context, license *models.License) error {
	if m.Licenses == nil {
		m.Licenses = make(map[string]models.License)
	}
	if _, exists := m.Licenses[license.ID]; exists {
		return fmt.Errorf("license %s already exists", license.ID)
	}
	m.Licenses[license.ID] = *license
	return nil
}

func (m *MemoryStorage) FindLicensesByDeviceID(ctx context.Context, deviceID string) ([]*models.License, error) {
	var licenses []*models.License
	for _, license := range m.Licenses {
		if license.DeviceID == deviceID {
			licenseCopy := license
			licenses = append(licenses, &licenseCopy)
		}
	}
	return licenses, nil
}

func (m *MemoryStorage) FindLicensesByEmail(ctx context.Context, email string) ([]*models.License, error) {
	var licenses []*models.License
	for _, license := range m.Licenses {
		if license.Email == email {
			licenseCopy := license
			licenses = append(licenses, &licenseCopy)
		}
	}
	return licenses, nil
}

func (m *MemoryStorage) UpsertCustomerEmail(ctx context.Context, email, transactionID string, purchasedAt time.Time) error {
	if m.Customers == nil {
		m.Customers = make(map[string]models.CustomerEmail)
	}
	customer, exists := m.Customers[email]
	if !exists {
		customer = models.CustomerEmail{Email: email}
	}
	customer.LastPurchase = purchasedAt
	customer.AddTransaction(transactionID)
	m.Customers[email] = customer
	return nil
}

func (m *MemoryStorage) GetCustomerEmail(ctx context.Context, email string) (*models.CustomerEmail, error) {
	customer, exists := m.Customers[email]
	if !exists {
		return nil, nil
	}
	return &customer, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

type SQLiteStorage struct {
	db   *sql.DB
	path string
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	storage := &SQLiteStorage{
		db:   db,
		path: path,
	}

	ctx := context.Background()
	err = storage.migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) migrate(ctx context.Context) error {
	schema := `
      CREATE TABLE IF NOT EXISTS licenses (
          id TEXT PRIMARY KEY,
          transaction_id TEXT NOT NULL,
          item_name TEXT NOT NULL,
          amount TEXT NOT NULL,
          device_id TEXT NOT NULL DEFAULT '',
          email TEXT NOT NULL DEFAULT '',
          purchase_date DATETIME NOT NULL
      );

      CREATE INDEX IF NOT EXISTS idx_licenses_device_id ON licenses(device_id);
      CREATE INDEX IF NOT EXISTS idx_licenses_email ON licenses(email);

      CREATE TABLE IF NOT EXISTS customer_emails (
          email TEXT PRIMARY KEY,
          last_purchase DATETIME NOT NULL,
          transaction_ids TEXT NOT NULL DEFAULT '[]'
      );
      `

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStorage) InsertLicense(ctx context.Context, license *models.License) error {
	query := `INSERT INTO licenses (id, transaction_id, item_name, amount, device_id, email, purchase_date) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		license.ID,
		license.TransactionID,
		license.ItemName,
		license.Amount,
		license.DeviceID,
		license.Email,
		license.PurchaseDate,
	)

	if err != nil {
		return fmt.Errorf("failed to insert license: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) FindLicensesByDeviceID(ctx context.Context, deviceID string) ([]*models.License, error) {
	query := `SELECT id, transaction_id, item_name, amount, device_id, email, purchase_date FROM licenses WHERE device_id = ?`
	return s.queryLicenses(ctx, query, deviceID)
}

func (s *SQLiteStorage) FindLicensesByEmail(ctx context.Context, email string) ([]*models.License, error) {
	query := `SELECT id, transaction_id, item_name, amount, device_id, email, purchase_date FROM licenses WHERE email = ?`
	return s.queryLicenses(ctx, query, email)
}

func (s *SQLiteStorage) queryLicenses(ctx context.Context, query string, arg any) ([]*models.License, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query licenses: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Failed to close rows: %v", err)
		}
	}()

	var licenses []*models.License

	for rows.Next() {
		var license models.License
		err := rows.Scan(
			&license.ID,
			&license.TransactionID,
			&license.ItemName,
			&license.Amount,
			&license.DeviceID,
			&license.Email,
			&license.PurchaseDate,
		)

		if err != nil {
			return nil, fmt.Errorf("failed to scan license: %w", err)
		}

		licenses = append(licenses, &license)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating licenses: %w", err)
	}

	return licenses, nil
}

// UpsertCustomerEmail merges one purchase into the per-email aggregate:
// the last-purchase timestamp is overwritten, the transaction id joins
// the existing set. The read and the write are two statements with no
// transaction; concurrent writers resolve last-write-wins.
func (s *SQLiteStorage) UpsertCustomerEmail(ctx context.Context, email, transactionID string, purchasedAt time.Time) error {
	customer, err := s.GetCustomerEmail(ctx, email)
	if err != nil {
		return err
	}
	if customer == nil {
		customer = &models.CustomerEmail{Email: email}
	}
	customer.LastPurchase = purchasedAt
	customer.AddTransaction(transactionID)

	encodedIDs, err := json.Marshal(customer.TransactionIDs)
	if err != nil {
		return fmt.Errorf("failed to encode transaction ids: %w", err)
	}

	query := `INSERT OR REPLACE INTO customer_emails (email, last_purchase, transaction_ids) VALUES (?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query, customer.Email, customer.LastPurchase, string(encodedIDs))
	if err != nil {
		return fmt.Errorf("failed to save customer email: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) GetCustomerEmail(ctx context.Context, email string) (*models.CustomerEmail, error) {
	query := `SELECT email, last_purchase, transaction_ids FROM customer_emails WHERE email = ?`

	var customer models.CustomerEmail
	var encodedIDs string
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&customer.Email,
		&customer.LastPurchase,
		&encodedIDs,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(encodedIDs), &customer.TransactionIDs); err != nil {
		return nil, fmt.Errorf("failed to decode transaction ids: %w", err)
	}

	return &customer, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
