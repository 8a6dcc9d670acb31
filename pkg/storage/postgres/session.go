package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nsyszr/toybroker/pkg/model"
	"github.com/nsyszr/toybroker/pkg/storage"
	"github.com/pkg/errors"
)

func newSessionStore(db *sqlx.DB, eviction storage.EvictionPolicy) *sessionStore {
	if eviction == nil {
		eviction = storage.NoEviction()
	}
	return &sessionStore{
		db:       db,
		eviction: eviction,
		now:      time.Now,
	}
}

type sessionStore struct {
	db       *sqlx.DB
	eviction storage.EvictionPolicy
	now      func() time.Time
}

type sqlDataSession struct {
	UID         string    `db:"uid"`
	Domain      string    `db:"domain"`
	HTTPSPort   int       `db:"https_port"`
	HTTPPort    int       `db:"http_port"`
	WSPort      int       `db:"ws_port"`
	WSSPort     int       `db:"wss_port"`
	Platform    string    `db:"platform"`
	AppVersion  string    `db:"app_version"`
	UToken      string    `db:"utoken"`
	Toys        string    `db:"toys"`
	ConnectedAt time.Time `db:"connected_at"`
}

var sqlParamsSession = []string{
	"uid",
	"domain",
	"https_port",
	"http_port",
	"ws_port",
	"wss_port",
	"platform",
	"app_version",
	"utoken",
	"toys",
	"connected_at",
}

func (d *sqlDataSession) Scan(m *model.Session) error {
	toys := m.Toys
	if toys == nil {
		toys = map[string]model.Toy{}
	}
	b, err := json.Marshal(toys)
	if err != nil {
		return err
	}

	d.UID = m.UID
	d.Domain = m.Domain
	d.HTTPSPort = m.HTTPSPort
	d.HTTPPort = m.HTTPPort
	d.WSPort = m.WSPort
	d.WSSPort = m.WSSPort
	d.Platform = m.Platform
	d.AppVersion = m.AppVersion
	d.UToken = m.UToken
	d.Toys = string(b)
	d.ConnectedAt = m.ConnectedAt

	return nil
}

func (d *sqlDataSession) Model() (*model.Session, error) {
	m := &model.Session{
		UID:         d.UID,
		Domain:      d.Domain,
		HTTPSPort:   d.HTTPSPort,
		HTTPPort:    d.HTTPPort,
		WSPort:      d.WSPort,
		WSSPort:     d.WSSPort,
		Platform:    d.Platform,
		AppVersion:  d.AppVersion,
		UToken:      d.UToken,
		ConnectedAt: d.ConnectedAt.UTC(),
	}

	if d.Toys != "" {
		if err := json.Unmarshal([]byte(d.Toys), &m.Toys); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (s *sessionStore) FetchAll() (map[string]model.Session, error) {
	models, err := fetchAllSessions(s.db)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for uid, m := range models {
		if s.eviction.Expired(&m, now) {
			delete(models, uid)
		}
	}
	return models, nil
}

func (s *sessionStore) FindByUID(uid string) (*model.Session, error) {
	m, err := findSessionByUID(s.db, uid)
	if err != nil {
		return nil, err
	}
	if s.eviction.Expired(m, s.now()) {
		return nil, storage.ErrNotFound
	}
	return m, nil
}

func (s *sessionStore) Upsert(m *model.Session) error {
	return upsertSession(s.db, m.Stamped(s.now()))
}

func fetchAllSessions(db *sqlx.DB) (map[string]model.Session, error) {
	rows := make([]sqlDataSession, 0)
	models := make(map[string]model.Session)

	query := fmt.Sprintf("SELECT %s FROM sessions", strings.Join(sqlParamsSession, ", "))
	if err := db.Select(&rows, query); err != nil {
		return nil, errors.Wrap(err, "failed to fetch all sessions")
	}

	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to session model")
		}

		models[d.UID] = *m
	}

	return models, nil
}

func findSessionByUID(db *sqlx.DB, uid string) (*model.Session, error) {
	d := sqlDataSession{}
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE uid=$1", strings.Join(sqlParamsSession, ", "))
	if err := db.Get(&d, query, uid); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find session")
	}

	m, err := d.Model()
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert SQL data to session model")
	}
	return m, nil
}

func upsertSession(db *sqlx.DB, m *model.Session) error {
	d := sqlDataSession{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert session model to SQL data")
	}

	if _, err := db.NamedExec(upsertSessionQuery(), d); err != nil {
		return errors.Wrap(err, "failed to upsert session")
	}

	return nil
}

// upsertSessionQuery overwrites every column on conflict so a callback
// replaces the previous record as a whole.
func upsertSessionQuery() string {
	var updates []string
	for _, param := range sqlParamsSession {
		if param == "uid" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s=EXCLUDED.%s", param, param))
	}

	return fmt.Sprintf(
		"INSERT INTO sessions (%s) VALUES (%s) ON CONFLICT (uid) DO UPDATE SET %s",
		strings.Join(sqlParamsSession, ", "),
		":"+strings.Join(sqlParamsSession, ", :"),
		strings.Join(updates, ", "),
	)
}
