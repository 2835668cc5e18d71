// README: Tracking store: pg rows for updates/snapshots, Redis GEO for live positions.
package tracking

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"freta/internal/types"
)

const carrierGeoKey = "tracking:carriers"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, rdb *redis.Client) *Store {
	return &Store{db: db, redis: rdb}
}

func (s *Store) Append(ctx context.Context, u *Update) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO tracking_updates (id, request_id, partner_id, status_label, note, photo_refs, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(u.ID), string(u.RequestID), string(u.PartnerID),
		u.StatusLabel, u.Note, u.PhotoRefs, u.CreatedAt)
	return err
}

func (s *Store) ListByRequest(ctx context.Context, requestID types.ID) ([]Update, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, request_id, partner_id, status_label, note, photo_refs, created_at
		FROM tracking_updates
		WHERE request_id = $1
		ORDER BY created_at`, string(requestID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []Update
	for rows.Next() {
		var u Update
		if err := rows.Scan(&u.ID, &u.RequestID, &u.PartnerID, &u.StatusLabel, &u.Note, &u.PhotoRefs, &u.CreatedAt); err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// SetPosition updates the live GEO index and appends a snapshot row.
func (s *Store) SetPosition(ctx context.Context, partnerID types.ID, requestID *types.ID, p types.Point) error {
	if s.redis != nil {
		if err := s.redis.GeoAdd(ctx, carrierGeoKey, &redis.GeoLocation{
			Name:      string(partnerID),
			Longitude: p.Lng,
			Latitude:  p.Lat,
		}).Err(); err != nil {
			return err
		}
	}
	var reqID *string
	if requestID != nil {
		v := string(*requestID)
		reqID = &v
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO carrier_position_snapshots (partner_id, request_id, lat, lng, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		string(partnerID), reqID, p.Lat, p.Lng, time.Now().UTC())
	return err
}

// LastPosition reads the live GEO index; ok is false when the carrier has
// never reported a position.
func (s *Store) LastPosition(ctx context.Context, partnerID types.ID) (types.Point, bool, error) {
	if s.redis == nil {
		return types.Point{}, false, nil
	}
	pos, err := s.redis.GeoPos(ctx, carrierGeoKey, string(partnerID)).Result()
	if err != nil {
		return types.Point{}, false, err
	}
	if len(pos) == 0 || pos[0] == nil {
		return types.Point{}, false, nil
	}
	return types.Point{Lat: pos[0].Latitude, Lng: pos[0].Longitude}, true, nil
}
