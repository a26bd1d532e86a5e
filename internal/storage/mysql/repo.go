package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"safar_travel/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(b []byte) any {
	if len(b) == 0 {
		return "{}"
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) GetPackage(ctx context.Context, id int64) (domain.TourPackage, error) {
	row := r.db.QueryRowContext(ctx, getPackageSQL, id)

	var p domain.TourPackage
	var childPrice, infantPrice, discountValue sql.NullFloat64
	var discountType sql.NullString
	err := row.Scan(
		&p.ID, &p.Name, &p.Currency, &p.AdultPrice,
		&childPrice, &infantPrice, &discountType, &discountValue,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TourPackage{}, &domain.NotFoundError{Kind: "package", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return domain.TourPackage{}, err
	}
	if childPrice.Valid {
		p.ChildPrice = &childPrice.Float64
	}
	if infantPrice.Valid {
		p.InfantPrice = &infantPrice.Float64
	}
	if discountType.Valid && discountValue.Valid {
		p.Discount = &domain.Discount{Type: discountType.String, Value: discountValue.Float64}
	}

	rows, err := r.db.QueryContext(ctx, listPackageStaysSQL, id)
	if err != nil {
		return domain.TourPackage{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var s domain.HotelStay
		if err := rows.Scan(&s.HotelID, &s.Nights, &s.CheckInDayOffset, &s.StaticPerNight); err != nil {
			return domain.TourPackage{}, err
		}
		p.Stays = append(p.Stays, s)
	}
	return p, rows.Err()
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Hotel{}, &domain.NotFoundError{Kind: "hotel", Key: strconv.FormatInt(id, 10)}
	}
	return h, err
}

func (r *Repo) ListUnlinkedHotels(ctx context.Context, limit int) ([]domain.Hotel, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, listUnlinkedHotelsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanHotel(row rowScanner) (domain.Hotel, error) {
	var h domain.Hotel
	var stars sql.NullInt64
	var address, supplierCode, supplierName sql.NullString
	var lat, lon sql.NullFloat64
	var livePricing sql.NullBool

	err := row.Scan(
		&h.ID, &h.Name, &stars, &h.City, &h.Country, &address,
		&lat, &lon, &h.Currency, &h.BasePrice,
		&supplierCode, &supplierName, &livePricing,
	)
	if err != nil {
		return domain.Hotel{}, err
	}
	if stars.Valid {
		s := int(stars.Int64)
		h.Stars = &s
	}
	if address.Valid && address.String != "" {
		h.Address = &address.String
	}
	if lat.Valid && lon.Valid {
		h.Coords = &domain.Coords{Lat: lat.Float64, Lon: lon.Float64}
	}
	if supplierCode.Valid && supplierCode.String != "" {
		h.Link = domain.SupplierLink{
			Linked:      true,
			HotelCode:   supplierCode.String,
			HotelName:   supplierName.String,
			LivePricing: livePricing.Valid && livePricing.Bool,
		}
	}
	return h, nil
}

func (r *Repo) UpsertSupplierHotel(ctx context.Context, h domain.SupplierHotel) error {
	amen, _ := json.Marshal(h.Amenities)
	imgs, _ := json.Marshal(h.Images)
	var lat, lon any
	if h.Coords != nil {
		lat, lon = h.Coords.Lat, h.Coords.Lon
	}
	_, err := r.db.ExecContext(ctx, upsertSupplierHotelSQL,
		h.Code,
		h.Name,
		h.CityCode,
		h.Country,
		valInt(h.Stars),
		valStr(h.Address),
		lat,
		lon,
		string(amen),
		string(imgs),
		valJSON(h.RawJSON),
	)
	return err
}

func (r *Repo) SetHotelLink(ctx context.Context, hotelID int64, link domain.SupplierLink) error {
	var code, name any
	if link.Linked {
		code, name = link.HotelCode, link.HotelName
	}
	res, err := r.db.ExecContext(ctx, setHotelLinkSQL,
		code, name, link.Linked && link.LivePricing, link.Linked, hotelID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// UPDATE of identical values also reports 0; confirm existence
		var one int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM hotels WHERE id = ?", hotelID).Scan(&one); errors.Is(err, sql.ErrNoRows) {
			return &domain.NotFoundError{Kind: "hotel", Key: strconv.FormatInt(hotelID, 10)}
		}
	}
	return nil
}

func (r *Repo) LogMatchMiss(ctx context.Context, hotelID int64, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMatchMissSQL, hotelID, reason)
	return err
}
