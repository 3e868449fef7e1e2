package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Photo is one catalogued photo and the base pose it floats at.
type Photo struct {
	ID  string
	URL string
	// Source records where the photo came from, e.g. "sample", "upload"
	// or the absolute path of a dropped file.
	Source string
	// File is the stored file name under the photo directory, empty for
	// remote URLs.
	File        string
	ContentType string
	Position    [3]float64
	Rotation    [3]float64
	CreatedAt   time.Time
}

// PhotoRepository provides access to the photos table.
type PhotoRepository struct {
	db *sql.DB
}

// Photos returns the photo repository for this store.
func (s *Store) Photos() *PhotoRepository {
	return &PhotoRepository{db: s.db}
}

const photoColumns = `id, url, source, file, content_type, pos_x, pos_y, pos_z, rot_x, rot_y, rot_z, created_at`

// Create inserts p. It returns ErrDuplicate if the ID is taken.
func (r *PhotoRepository) Create(p *Photo) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO photos (`+photoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.URL, p.Source, p.File, p.ContentType,
		p.Position[0], p.Position[1], p.Position[2],
		p.Rotation[0], p.Rotation[1], p.Rotation[2],
		p.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("photo %s: %w", p.ID, ErrDuplicate)
		}
		return fmt.Errorf("insert photo %s: %w", p.ID, err)
	}
	return nil
}

// GetByID returns the photo with the given ID.
func (r *PhotoRepository) GetByID(id string) (*Photo, error) {
	return r.getOne(`SELECT `+photoColumns+` FROM photos WHERE id = ?`, id)
}

// GetBySource returns the most recent photo recorded with the given source.
func (r *PhotoRepository) GetBySource(source string) (*Photo, error) {
	return r.getOne(`SELECT `+photoColumns+` FROM photos WHERE source = ? ORDER BY seq DESC LIMIT 1`, source)
}

func (r *PhotoRepository) getOne(query string, arg any) (*Photo, error) {
	p, err := scanPhoto(r.db.QueryRow(query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns every photo in insertion order.
func (r *PhotoRepository) List() ([]*Photo, error) {
	rows, err := r.db.Query(`SELECT ` + photoColumns + ` FROM photos ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []*Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// Count returns the number of stored photos.
func (r *PhotoRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM photos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count photos: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row scanner) (*Photo, error) {
	p := &Photo{}
	err := row.Scan(
		&p.ID, &p.URL, &p.Source, &p.File, &p.ContentType,
		&p.Position[0], &p.Position[1], &p.Position[2],
		&p.Rotation[0], &p.Rotation[1], &p.Rotation[2],
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
