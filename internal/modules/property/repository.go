package property

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/delordemm1/realestate-api/internal/database"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var propertyColumns = []string{
	"id", "owner_id", "ptype", "city", "number_of_rooms", "area", "location_text",
	"price", "is_for_rent", "details", "latitude", "longitude", "created_at", "updated_at",
}

var orderings = map[string]string{
	OrderPriceAsc:  "price ASC",
	OrderPriceDesc: "price DESC",
	OrderAreaAsc:   "area ASC",
	OrderAreaDesc:  "area DESC",
}

// Repository defines the database operations of the property module.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Property, int, error)
	Get(ctx context.Context, id int64) (*Property, error)
	// WithTx runs fn against a repository bound to a single transaction.
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Create(ctx context.Context, p *Property) error
	Update(ctx context.Context, p *Property) error
	Delete(ctx context.Context, id int64) error

	ListFacilities(ctx context.Context) ([]Facility, error)
	PropertyFacilities(ctx context.Context, propertyID int64) ([]Facility, error)
	AddFacility(ctx context.Context, propertyID, facilityID int64) error
	RemoveFacility(ctx context.Context, propertyID, facilityID int64) error

	PropertyImages(ctx context.Context, propertyID int64) ([]Image, error)
	// CountImages locks the property row for the rest of the transaction and
	// counts its images.
	CountImages(ctx context.Context, propertyID int64) (int, error)
	AddImage(ctx context.Context, img *Image) error
	DeleteImage(ctx context.Context, propertyID, imageID int64) error
	UpdateImageCaption(ctx context.Context, propertyID, imageID int64, caption *string) error

	AddFavorite(ctx context.Context, userID string, propertyID int64, at time.Time) error
	RemoveFavorite(ctx context.Context, userID string, propertyID int64) error
	ListFavorites(ctx context.Context, userID string) ([]Property, error)

	IsSeller(ctx context.Context, userID string) (bool, error)
}

type repository struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
}

// NewRepository creates a property repository backed by db.
func NewRepository(db database.DBTX) Repository {
	return &repository{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *repository) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&repository{db: tx, psql: r.psql})
	})
}

// listConditions turns a filter into a WHERE clause shared by the page and count queries.
func listConditions(f ListFilter) squirrel.And {
	where := squirrel.And{}
	if f.City != "" {
		where = append(where, squirrel.Eq{"city": f.City})
	}
	if f.Type != "" {
		where = append(where, squirrel.Eq{"ptype": f.Type})
	}
	if f.IsForRent != nil {
		where = append(where, squirrel.Eq{"is_for_rent": *f.IsForRent})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"city": pattern},
			squirrel.ILike{"location_text": pattern},
		})
	}
	return where
}

func (r *repository) listQuery(f ListFilter) squirrel.SelectBuilder {
	order, ok := orderings[f.Ordering]
	if !ok {
		order = "created_at DESC"
	}
	q := r.psql.Select(propertyColumns...).From("properties")
	if where := listConditions(f); len(where) > 0 {
		q = q.Where(where)
	}
	return q.OrderBy(order, "id DESC").
		Limit(uint64(f.PageSize)).
		Offset(uint64((f.Page - 1) * f.PageSize))
}

// List returns one page of properties and the total number of matches.
func (r *repository) List(ctx context.Context, f ListFilter) ([]Property, int, error) {
	sql, args, err := r.listQuery(f).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var items []Property
	if err := pgxscan.Select(ctx, r.db, &items, sql, args...); err != nil {
		return nil, 0, err
	}

	count := r.psql.Select("COUNT(*)").From("properties")
	if where := listConditions(f); len(where) > 0 {
		count = count.Where(where)
	}
	sql, args, err = count.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get returns ErrPropertyNotFound when no row matches.
func (r *repository) Get(ctx context.Context, id int64) (*Property, error) {
	sql, args, err := r.psql.Select(propertyColumns...).
		From("properties").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var p Property
	if err := pgxscan.Get(ctx, r.db, &p, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPropertyNotFound.WithCause(err)
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts p and fills in its generated id.
func (r *repository) Create(ctx context.Context, p *Property) error {
	sql, args, err := r.psql.Insert("properties").
		Columns(propertyColumns[1:]...).
		Values(p.OwnerID, p.Type, p.City, p.NumberOfRooms, p.Area, p.LocationText,
			p.Price, p.IsForRent, p.Details, p.Latitude, p.Longitude, p.CreatedAt, p.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, sql, args...).Scan(&p.ID)
}

func (r *repository) Update(ctx context.Context, p *Property) error {
	sql, args, err := r.psql.Update("properties").
		SetMap(map[string]any{
			"ptype":           p.Type,
			"city":            p.City,
			"number_of_rooms": p.NumberOfRooms,
			"area":            p.Area,
			"location_text":   p.LocationText,
			"price":           p.Price,
			"is_for_rent":     p.IsForRent,
			"details":         p.Details,
			"latitude":        p.Latitude,
			"longitude":       p.Longitude,
			"updated_at":      p.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, ErrPropertyNotFound, sql, args...)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.psql.Delete("properties").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, ErrPropertyNotFound, sql, args...)
}

// execOne runs a statement that must touch a row, returning notFound otherwise.
func (r *repository) execOne(ctx context.Context, notFound *Error, sql string, args ...any) error {
	ct, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

// --- Facilities ---

func (r *repository) ListFacilities(ctx context.Context) ([]Facility, error) {
	sql, args, err := r.psql.Select("id", "name").From("facilities").OrderBy("name").ToSql()
	if err != nil {
		return nil, err
	}
	var out []Facility
	if err := pgxscan.Select(ctx, r.db, &out, sql, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) PropertyFacilities(ctx context.Context, propertyID int64) ([]Facility, error) {
	sql, args, err := r.psql.Select("f.id", "f.name").
		From("facilities f").
		Join("property_facilities pf ON pf.facility_id = f.id").
		Where(squirrel.Eq{"pf.property_id": propertyID}).
		OrderBy("f.name").
		ToSql()
	if err != nil {
		return nil, err
	}
	var out []Facility
	if err := pgxscan.Select(ctx, r.db, &out, sql, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// AddFacility links a facility to a property. A duplicate link yields
// ErrFacilityAlreadyAdded and an unknown facility ErrFacilityNotFound.
func (r *repository) AddFacility(ctx context.Context, propertyID, facilityID int64) error {
	sql, args, err := r.psql.Insert("property_facilities").
		Columns("property_id", "facility_id").
		Values(propertyID, facilityID).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return ErrFacilityAlreadyAdded.WithCause(err)
			case foreignKeyViolation:
				return ErrFacilityNotFound.WithCause(err)
			}
		}
		return err
	}
	return nil
}

func (r *repository) RemoveFacility(ctx context.Context, propertyID, facilityID int64) error {
	sql, args, err := r.psql.Delete("property_facilities").
		Where(squirrel.Eq{"property_id": propertyID, "facility_id": facilityID}).
		ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, ErrFacilityNotFound, sql, args...)
}

// --- Images ---

func (r *repository) PropertyImages(ctx context.Context, propertyID int64) ([]Image, error) {
	sql, args, err := r.psql.Select("id", "property_id", "image_url", "caption", "created_at").
		From("property_images").
		Where(squirrel.Eq{"property_id": propertyID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	var out []Image
	if err := pgxscan.Select(ctx, r.db, &out, sql, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) CountImages(ctx context.Context, propertyID int64) (int, error) {
	lockSQL, lockArgs, err := r.psql.Select("id").
		From("properties").
		Where(squirrel.Eq{"id": propertyID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := r.db.QueryRow(ctx, lockSQL, lockArgs...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrPropertyNotFound
		}
		return 0, err
	}

	sql, args, err := r.psql.Select("COUNT(*)").
		From("property_images").
		Where(squirrel.Eq{"property_id": propertyID}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *repository) AddImage(ctx context.Context, img *Image) error {
	sql, args, err := r.psql.Insert("property_images").
		Columns("property_id", "image_url", "caption", "created_at").
		Values(img.PropertyID, img.ImageURL, img.Caption, img.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, sql, args...).Scan(&img.ID)
}

func (r *repository) DeleteImage(ctx context.Context, propertyID, imageID int64) error {
	sql, args, err := r.psql.Delete("property_images").
		Where(squirrel.Eq{"id": imageID, "property_id": propertyID}).
		ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, ErrImageNotFound, sql, args...)
}

// UpdateImageCaption sets the caption; nil clears it.
func (r *repository) UpdateImageCaption(ctx context.Context, propertyID, imageID int64, caption *string) error {
	sql, args, err := r.psql.Update("property_images").
		Set("caption", caption).
		Where(squirrel.Eq{"id": imageID, "property_id": propertyID}).
		ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, ErrImageNotFound, sql, args...)
}

// --- Favorites ---

func (r *repository) AddFavorite(ctx context.Context, userID string, propertyID int64, at time.Time) error {
	sql, args, err := r.psql.Insert("favorite_properties").
		Columns("user_id", "property_id", "created_at").
		Values(userID, propertyID, at).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return ErrAlreadyFavorite.WithCause(err)
			case foreignKeyViolation:
				return ErrPropertyNotFound.WithCause(err)
			}
		}
		return err
	}
	return nil
}

func (r *repository) RemoveFavorite(ctx context.Context, userID string, propertyID int64) error {
	sql, args, err := r.psql.Delete("favorite_properties").
		Where(squirrel.Eq{"user_id": userID, "property_id": propertyID}).
		ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, ErrNotFavorite, sql, args...)
}

// ListFavorites returns the user's favorites, most recently added first.
func (r *repository) ListFavorites(ctx context.Context, userID string) ([]Property, error) {
	cols := make([]string, len(propertyColumns))
	for i, c := range propertyColumns {
		cols[i] = "p." + c
	}
	sql, args, err := r.psql.Select(cols...).
		From("properties p").
		Join("favorite_properties fp ON fp.property_id = p.id").
		Where(squirrel.Eq{"fp.user_id": userID}).
		OrderBy("fp.created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	var out []Property
	if err := pgxscan.Select(ctx, r.db, &out, sql, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// IsSeller reads the seller flag of a user; unknown users are not sellers.
func (r *repository) IsSeller(ctx context.Context, userID string) (bool, error) {
	sql, args, err := r.psql.Select("is_seller").From("users").Where(squirrel.Eq{"id": userID}).ToSql()
	if err != nil {
		return false, err
	}
	var isSeller bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&isSeller); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return isSeller, nil
}
