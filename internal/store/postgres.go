package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"storefront-catalog-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrProductNotFound = errors.New("store: product not found")
	ErrUserNotFound    = errors.New("store: user not found")
	ErrUserEmailExists = errors.New("store: user email already exists")
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresStore implements CatalogStorer and UserStorer using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	q  dbtx
	tx bool
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

// WithTx runs fn inside a single transaction. A store that is already bound to
// a transaction runs fn directly so nested calls share it.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx CatalogStorer) error) error {
	if s.tx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: WithTx failed to begin transaction: %w", err)
	}
	if err := fn(&PostgresStore{db: s.db, q: tx, tx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Printf("ERROR: Failed to roll back transaction: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: WithTx failed to commit transaction: %w", err)
	}
	return nil
}

// --- ProductStorer Implementation ---

const productColumns = `id, name, category, price, image, alt, description, main_description,
		dimensions, material, weight, in_stock, rating, created_at, updated_at`

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Category, &p.Price, &p.Image, &p.Alt, &p.Description, &p.MainDescription,
		&p.Dimensions, &p.Material, &p.Weight, &p.InStock, &p.Rating, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		INSERT INTO products
			(name, category, price, image, alt, description, main_description, dimensions, material, weight, in_stock, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + productColumns + `;`

	rating := product.Rating
	if rating.IsZero() {
		rating = domain.DefaultRating
	}

	created, err := scanProduct(s.q.QueryRowContext(ctx, query,
		product.Name, product.Category, product.Price, product.Image, product.Alt,
		product.Description, product.MainDescription, product.Dimensions, product.Material, product.Weight,
		product.InStock, rating,
	))
	if err != nil {
		return nil, fmt.Errorf("store: CreateProduct failed to scan row: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1;`

	product, err := scanProduct(s.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}
	return product, nil
}

// ListProducts returns every product, most recently created first.
// TODO: add keyset pagination once the storefront client can page through results.
func (s *PostgresStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC;`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		UPDATE products
		SET name = $1, category = $2, price = $3, image = $4, alt = $5, description = $6,
			main_description = $7, dimensions = $8, material = $9, weight = $10, in_stock = $11,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $12
		RETURNING ` + productColumns + `;`

	updated, err := scanProduct(s.q.QueryRowContext(ctx, query,
		product.Name, product.Category, product.Price, product.Image, product.Alt, product.Description,
		product.MainDescription, product.Dimensions, product.Material, product.Weight, product.InStock,
		product.ID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: UpdateProduct failed to scan row: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = $1;`
	result, err := s.q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// LockProduct takes a row lock on the product for the rest of the transaction.
// Outside a transaction the lock is released immediately.
func (s *PostgresStore) LockProduct(ctx context.Context, id int64) error {
	query := `SELECT id FROM products WHERE id = $1 FOR UPDATE;`
	var locked int64
	if err := s.q.QueryRowContext(ctx, query, id).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("store: LockProduct failed to scan row: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetProductRating(ctx context.Context, id int64, rating decimal.Decimal) error {
	query := `UPDATE products SET rating = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2;`
	result, err := s.q.ExecContext(ctx, query, rating, id)
	if err != nil {
		return fmt.Errorf("store: SetProductRating failed to execute update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: SetProductRating failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// --- SubDescriptionStorer Implementation ---

func (s *PostgresStore) CreateSubDescription(ctx context.Context, sub *domain.SubDescription) (*domain.SubDescription, error) {
	query := `
		INSERT INTO product_sub_descriptions (product_id, title, body, "order")
		VALUES ($1, $2, $3, $4)
		RETURNING id;`

	created := *sub
	if err := s.q.QueryRowContext(ctx, query, sub.ProductID, sub.Title, sub.Body, sub.Order).Scan(&created.ID); err != nil {
		return nil, fmt.Errorf("store: CreateSubDescription failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) ListSubDescriptions(ctx context.Context, productID int64) ([]domain.SubDescription, error) {
	query := `
		SELECT id, product_id, title, body, "order"
		FROM product_sub_descriptions
		WHERE product_id = $1
		ORDER BY "order" ASC, id ASC;`

	rows, err := s.q.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("store: ListSubDescriptions failed to query rows: %w", err)
	}
	defer rows.Close()

	subs := []domain.SubDescription{}
	for rows.Next() {
		var sd domain.SubDescription
		if err := rows.Scan(&sd.ID, &sd.ProductID, &sd.Title, &sd.Body, &sd.Order); err != nil {
			return nil, fmt.Errorf("store: ListSubDescriptions failed to scan row: %w", err)
		}
		subs = append(subs, sd)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListSubDescriptions iteration error: %w", err)
	}
	return subs, nil
}

func (s *PostgresStore) DeleteSubDescriptions(ctx context.Context, productID int64) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM product_sub_descriptions WHERE product_id = $1;`, productID); err != nil {
		return fmt.Errorf("store: DeleteSubDescriptions failed to execute delete: %w", err)
	}
	return nil
}

// --- ThumbnailStorer Implementation ---

func (s *PostgresStore) CreateThumbnail(ctx context.Context, thumb *domain.Thumbnail) (*domain.Thumbnail, error) {
	query := `
		INSERT INTO product_thumbnails (product_id, image_url, "order")
		VALUES ($1, $2, $3)
		RETURNING id;`

	created := *thumb
	if err := s.q.QueryRowContext(ctx, query, thumb.ProductID, thumb.ImageURL, thumb.Order).Scan(&created.ID); err != nil {
		return nil, fmt.Errorf("store: CreateThumbnail failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) ListThumbnails(ctx context.Context, productID int64) ([]domain.Thumbnail, error) {
	query := `
		SELECT id, product_id, image_url, "order"
		FROM product_thumbnails
		WHERE product_id = $1
		ORDER BY "order" ASC, id ASC;`

	rows, err := s.q.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("store: ListThumbnails failed to query rows: %w", err)
	}
	defer rows.Close()

	thumbs := []domain.Thumbnail{}
	for rows.Next() {
		var th domain.Thumbnail
		if err := rows.Scan(&th.ID, &th.ProductID, &th.ImageURL, &th.Order); err != nil {
			return nil, fmt.Errorf("store: ListThumbnails failed to scan row: %w", err)
		}
		thumbs = append(thumbs, th)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListThumbnails iteration error: %w", err)
	}
	return thumbs, nil
}

func (s *PostgresStore) DeleteThumbnails(ctx context.Context, productID int64) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM product_thumbnails WHERE product_id = $1;`, productID); err != nil {
		return fmt.Errorf("store: DeleteThumbnails failed to execute delete: %w", err)
	}
	return nil
}

// --- ReviewStorer Implementation ---

func (s *PostgresStore) CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	query := `
		INSERT INTO product_reviews (product_id, user_name, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, date;`

	created := *review
	err := s.q.QueryRowContext(ctx, query, review.ProductID, review.UserName, review.Rating, review.Comment).
		Scan(&created.ID, &created.Date)
	if err != nil {
		return nil, fmt.Errorf("store: CreateReview failed to scan row: %w", err)
	}
	return &created, nil
}

// ListReviews returns the product's reviews, newest first.
func (s *PostgresStore) ListReviews(ctx context.Context, productID int64) ([]domain.Review, error) {
	query := `
		SELECT id, product_id, user_name, rating, comment, date
		FROM product_reviews
		WHERE product_id = $1
		ORDER BY date DESC, id DESC;`

	rows, err := s.q.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("store: ListReviews failed to query rows: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserName, &rv.Rating, &rv.Comment, &rv.Date); err != nil {
			return nil, fmt.Errorf("store: ListReviews failed to scan row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListReviews iteration error: %w", err)
	}
	return reviews, nil
}

func (s *PostgresStore) DeleteReviews(ctx context.Context, productID int64) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM product_reviews WHERE product_id = $1;`, productID); err != nil {
		return fmt.Errorf("store: DeleteReviews failed to execute delete: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		log.Println("INFO: Closing database connection pool...")
		err := s.db.Close()
		if err != nil {
			log.Printf("ERROR: Failed to close database connection pool: %v", err)
			return err
		}
		log.Println("INFO: Database connection pool closed successfully.")
		return nil
	}
	return nil
}
