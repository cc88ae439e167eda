package repo

import (
	"context"
	"database/sql"

	"bizdesk/internal/domain"
)

const companyColumns = `id,owner_id,name,business_type,COALESCE(tax_id,'') AS tax_id,
street,city,COALESCE(state,'') AS state,COALESCE(postal_code,'') AS postal_code,country,
rep_name,rep_email,rep_phone,COALESCE(rep_title,'') AS rep_title,
display_name,COALESCE(website,'') AS website,COALESCE(support_email,'') AS support_email,COALESCE(about,'') AS about,
created_at`

func scanCompany(scan func(dest ...any) error) (domain.Company, error) {
	var c domain.Company
	err := scan(&c.ID, &c.OwnerID, &c.Name, &c.BusinessType, &c.TaxID,
		&c.Address.Street, &c.Address.City, &c.Address.State, &c.Address.PostalCode, &c.Address.Country,
		&c.Representative.Name, &c.Representative.Email, &c.Representative.Phone, &c.Representative.Title,
		&c.Public.DisplayName, &c.Public.Website, &c.Public.SupportMail, &c.Public.About,
		&c.CreatedAt)
	return c, err
}

func (r Repo) InsertCompany(ctx context.Context, tx *sql.Tx, c domain.Company) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO companies(id,owner_id,name,business_type,tax_id,
street,city,state,postal_code,country,
rep_name,rep_email,rep_phone,rep_title,
display_name,website,support_email,about,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.OwnerID, c.Name, c.BusinessType, nullable(c.TaxID),
		c.Address.Street, c.Address.City, nullable(c.Address.State), nullable(c.Address.PostalCode), c.Address.Country,
		c.Representative.Name, c.Representative.Email, c.Representative.Phone, nullable(c.Representative.Title),
		c.Public.DisplayName, nullable(c.Public.Website), nullable(c.Public.SupportMail), nullable(c.Public.About),
		c.CreatedAt)
	return err
}

func (r Repo) GetCompany(ctx context.Context, id string) (domain.Company, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id=?`, id)
	c, err := scanCompany(row.Scan)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) ListCompaniesByOwner(ctx context.Context, ownerID string) ([]domain.Company, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE owner_id=? ORDER BY created_at ASC, id ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Company
	for rows.Next() {
		c, err := scanCompany(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
