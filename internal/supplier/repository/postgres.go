package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/supplier/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, s *model.Supplier) error {
	query := `
        INSERT INTO suppliers (id, name, country, city, street, building, created_at, updated_at)
        VALUES (:id, :name, :country, :city, :street, :building, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, s)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Supplier, error) {
	var supplier model.Supplier
	query := `SELECT * FROM suppliers WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &supplier, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &supplier, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.SupplierFilters) ([]model.Supplier, int, error) {
	var suppliers []model.Supplier
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Search != "" {
		conditions = append(conditions, "name ILIKE :search")
		args["search"] = "%" + f.Search + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM suppliers" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM suppliers" + whereClause + " ORDER BY name ASC"
	if f.PageSize > 0 {
		offset := pageOffset(f.Page, f.PageSize)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &suppliers, args)
	return suppliers, count, err
}

func (r *PGRepository) Update(ctx context.Context, s *model.Supplier) error {
	query := `
        UPDATE suppliers
        SET name = :name,
            country = :country,
            city = :city,
            street = :street,
            building = :building,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, s)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	// Products and their stock rows go with the supplier (ON DELETE CASCADE).
	_, err := r.DB.ExecContext(ctx, "DELETE FROM suppliers WHERE id = $1", id)
	return err
}

// pageOffset converts 1-based page filters to a SQL offset, treating page
// values below 1 as the first page.
func pageOffset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
