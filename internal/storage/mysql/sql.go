package mysql

const getPackageSQL = `
SELECT
  p.id,
  p.name,
  p.currency,
  p.adult_price,
  p.child_price,
  p.infant_price,
  p.discount_type,
  p.discount_value
FROM packages p
WHERE p.id = ?
`

const listPackageStaysSQL = `
SELECT
  ph.hotel_id,
  ph.nights,
  ph.checkin_day_offset,
  ph.static_per_night
FROM package_hotels ph
WHERE ph.package_id = ?
ORDER BY ph.checkin_day_offset, ph.hotel_id
`

const getHotelSQL = `
SELECT
  h.id,
  h.name,
  h.stars,
  h.city,
  h.country,
  h.address,
  h.lat,
  h.lon,
  h.currency,
  h.base_price,
  h.supplier_code,
  h.supplier_name,
  h.live_pricing
FROM hotels h
WHERE h.id = ?
`

const listUnlinkedHotelsSQL = `
SELECT
  h.id,
  h.name,
  h.stars,
  h.city,
  h.country,
  h.address,
  h.lat,
  h.lon,
  h.currency,
  h.base_price,
  h.supplier_code,
  h.supplier_name,
  h.live_pricing
FROM hotels h
WHERE h.supplier_code IS NULL OR h.supplier_code = ''
ORDER BY h.id
LIMIT ?
`

const upsertSupplierHotelSQL = `
INSERT INTO supplier_hotels
  (supplier_code, name, city_code, country, stars, address, lat, lon, amenities, images, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name       = VALUES(name),
  city_code  = VALUES(city_code),
  country    = VALUES(country),
  stars      = VALUES(stars),
  address    = VALUES(address),
  lat        = VALUES(lat),
  lon        = VALUES(lon),
  amenities  = VALUES(amenities),
  images     = VALUES(images),
  raw        = VALUES(raw),
  updated_at = CURRENT_TIMESTAMP
`

const setHotelLinkSQL = `
UPDATE hotels SET
  supplier_code = ?,
  supplier_name = ?,
  live_pricing  = ?,
  linked_at     = CASE WHEN ? THEN CURRENT_TIMESTAMP ELSE NULL END
WHERE id = ?
`

const insertMatchMissSQL = `
INSERT INTO match_misses (hotel_id, reason)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE reason = VALUES(reason), seen_at = CURRENT_TIMESTAMP
`
