package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/LeNguyen02/AuctionProduct/internal/models"
)

// PostgresStore implements Store on PostgreSQL via lib/pq. Per-product
// serialization of bids comes from the row lock taken inside
// ApplyWinningBid's transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "ping database")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{db: db}, nil
}

// InitSchema creates the tables if they do not exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		starting_price NUMERIC(18, 2) NOT NULL,
		current_price NUMERIC(18, 2),
		current_leader TEXT,
		images TEXT[] NOT NULL DEFAULT '{}',
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS bids (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		bidder_name TEXT NOT NULL,
		amount NUMERIC(18, 2) NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bids_product_id ON bids(product_id);
	CREATE INDEX IF NOT EXISTS idx_bids_created_at ON bids(created_at);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "create schema")
	}
	return nil
}

const productColumns = `id, name, starting_price, current_price, current_leader, images, description, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		p      models.Product
		price  decimal.NullDecimal
		leader sql.NullString
		images pq.StringArray
	)
	err := row.Scan(&p.ID, &p.Name, &p.StartingPrice, &price, &leader, &images,
		&p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if price.Valid {
		p.CurrentPrice = &price.Decimal
	}
	if leader.Valid {
		p.CurrentLeader = &leader.String
	}
	p.Images = []string(images)
	return &p, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, starting_price, images, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	images := p.Images
	if images == nil {
		images = []string{}
	}
	err := s.db.QueryRowContext(ctx, query, p.Name, p.StartingPrice, pq.Array(images), p.Description).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "insert product")
	}
	return nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query product")
	}
	return p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		products = append(products, *p)
	}
	return products, errors.Wrap(rows.Err(), "iterate products")
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $2,
		    starting_price = $3,
		    current_price = $4,
		    current_leader = $5,
		    images = $6,
		    description = $7,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	var price decimal.NullDecimal
	if p.CurrentPrice != nil {
		price = decimal.NullDecimal{Decimal: *p.CurrentPrice, Valid: true}
	}
	var leader sql.NullString
	if p.CurrentLeader != nil {
		leader = sql.NullString{String: *p.CurrentLeader, Valid: true}
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}

	result, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, p.StartingPrice, price, leader, pq.Array(images), p.Description)
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	// bid records go with the product via ON DELETE CASCADE
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ApplyWinningBid(ctx context.Context, productID int64, bidderName string, amount decimal.Decimal, at time.Time) (*models.BidRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin bid transaction")
	}
	defer tx.Rollback()

	var (
		startingPrice decimal.Decimal
		currentPrice  decimal.NullDecimal
	)
	err = tx.QueryRowContext(ctx,
		`SELECT starting_price, current_price FROM products WHERE id = $1 FOR UPDATE`,
		productID,
	).Scan(&startingPrice, &currentPrice)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "lock product row")
	}

	floor := startingPrice
	if currentPrice.Valid {
		floor = currentPrice.Decimal
	}
	if amount.LessThanOrEqual(floor) {
		return nil, &BidTooLowError{Floor: floor}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE products SET current_price = $2, current_leader = $3, updated_at = $4 WHERE id = $1`,
		productID, amount, bidderName, at,
	); err != nil {
		return nil, errors.Wrap(err, "update product price")
	}

	record := &models.BidRecord{
		ProductID:  productID,
		BidderName: bidderName,
		Amount:     amount,
		Note:       bidNote,
		CreatedAt:  at,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO bids (product_id, bidder_name, amount, note, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		productID, bidderName, amount, record.Note, at,
	).Scan(&record.ID)
	if err != nil {
		return nil, errors.Wrap(err, "insert bid record")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit bid")
	}
	return record, nil
}

func (s *PostgresStore) ListBids(ctx context.Context, productID int64) ([]models.BidRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, bidder_name, amount, note, created_at
		FROM bids
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
	`, productID)
	if err != nil {
		return nil, errors.Wrap(err, "query bids")
	}
	defer rows.Close()

	var bids []models.BidRecord
	for rows.Next() {
		var b models.BidRecord
		if err := rows.Scan(&b.ID, &b.ProductID, &b.BidderName, &b.Amount, &b.Note, &b.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan bid")
		}
		bids = append(bids, b)
	}
	return bids, errors.Wrap(rows.Err(), "iterate bids")
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
