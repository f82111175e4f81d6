package storage

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/youcap/youcap/internal/debuglog"
)

var (
	authBucket        = []byte("auth")
	mutesBucket       = []byte("mutes")
	transcriptsBucket = []byte("transcripts")
)

var (
	accessTokenKey  = []byte("access_token")
	refreshTokenKey = []byte("refresh_token")
)

// TokenPair holds the OAuth access and refresh tokens. The access token is
// ephemeral and may expire server-side; the refresh token is the long-lived
// recovery key.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{authBucket, mutesBucket, transcriptsBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Tokens returns the persisted token pair. Missing keys yield empty strings,
// never an error.
func (s *Store) Tokens() TokenPair {
	var pair TokenPair
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(authBucket)
		pair.AccessToken = string(b.Get(accessTokenKey))
		pair.RefreshToken = string(b.Get(refreshTokenKey))
		return nil
	})
	if err != nil {
		debuglog.Errorf("storage: reading tokens: %v", err)
	}
	return pair
}

// SaveTokens overwrites both token fields in a single transaction.
func (s *Store) SaveTokens(pair TokenPair) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(authBucket)
		if err := b.Put(accessTokenKey, []byte(pair.AccessToken)); err != nil {
			return err
		}
		return b.Put(refreshTokenKey, []byte(pair.RefreshToken))
	})
	if err != nil {
		debuglog.Errorf("storage: saving tokens: %v", err)
	}
}

// ClearTokens removes both token fields.
func (s *Store) ClearTokens() {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(authBucket)
		if err := b.Delete(accessTokenKey); err != nil {
			return err
		}
		return b.Delete(refreshTokenKey)
	})
	if err != nil {
		debuglog.Errorf("storage: clearing tokens: %v", err)
	}
}

// Mutes returns the persisted muted-channel set as id -> display name.
func (s *Store) Mutes() map[string]string {
	mutes := make(map[string]string)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(mutesBucket)
		return b.ForEach(func(k, v []byte) error {
			mutes[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		debuglog.Errorf("storage: reading mutes: %v", err)
	}
	return mutes
}

// SaveMutes replaces the persisted mute set.
func (s *Store) SaveMutes(mutes map[string]string) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(mutesBucket); err != nil {
			return err
		}
		b, err := tx.CreateBucket(mutesBucket)
		if err != nil {
			return err
		}
		for id, name := range mutes {
			if err := b.Put([]byte(id), []byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		debuglog.Errorf("storage: saving mutes: %v", err)
	}
}

// SaveTranscript caches a fetched transcript for local search.
func (s *Store) SaveTranscript(t *Transcript) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(transcriptsBucket)
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return b.Put([]byte(t.VideoID), data)
	})
}

func (s *Store) GetTranscript(videoID string) (*Transcript, error) {
	var t Transcript
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(transcriptsBucket)
		data := b.Get([]byte(videoID))
		if data == nil {
			return fmt.Errorf("transcript not found")
		}
		return json.Unmarshal(data, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetAllTranscripts() ([]*Transcript, error) {
	var transcripts []*Transcript
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(transcriptsBucket)
		return b.ForEach(func(_ []byte, v []byte) error {
			var t Transcript
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			transcripts = append(transcripts, &t)
			return nil
		})
	})
	return transcripts, err
}
