// Package simstore persists the simulated roster and vessels in SQLite so the
// CLI can operate on the same crew across invocations.
package simstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/crewmanifest/crewmanifest/internal/logging"
	"github.com/crewmanifest/crewmanifest/internal/sim"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// KerbalRecord is one persisted roster entry.
type KerbalRecord struct {
	ID        string `gorm:"primaryKey"`
	Position  int
	Name      string `gorm:"uniqueIndex"`
	Status    string
	Courage   float64
	Stupidity float64
	Badass    bool
	Gender    string
	Type      string
}

// VesselRecord is one persisted vessel.
type VesselRecord struct {
	ID       string `gorm:"primaryKey"`
	Position int
	Name     string
	LandedAt string
	Parts    []PartRecord `gorm:"foreignKey:VesselID;constraint:OnDelete:CASCADE"`
}

// PartRecord is one persisted part in attachment order.
type PartRecord struct {
	ID       string `gorm:"primaryKey"`
	VesselID string `gorm:"index"`
	Position int
	Title    string
	Capacity int
	Seats    []SeatRecord `gorm:"foreignKey:PartID;constraint:OnDelete:CASCADE"`
}

// SeatRecord places one kerbal in one part.
type SeatRecord struct {
	PartID   string `gorm:"primaryKey"`
	Seat     int    `gorm:"primaryKey"`
	KerbalID string `gorm:"index"`
}

// World is the loaded simulation state.
type World struct {
	Roster  *sim.Roster
	Vessels []*sim.Vessel
}

// Vessel returns the vessel whose ID or name matches ref.
func (w *World) Vessel(ref string) (*sim.Vessel, bool) {
	for _, v := range w.Vessels {
		if v.ID() == ref || v.Name() == ref {
			return v, true
		}
	}
	return nil, false
}

// Store wraps the gorm connection.
type Store struct {
	db     *gorm.DB
	logger *log.Logger
}

// Open connects to the SQLite file at path, creating it if needed, and
// migrates the schema. An empty path opens a private in-memory database.
func Open(path string, storeLogger *log.Logger) (*Store, error) {
	if storeLogger == nil {
		storeLogger = logging.Discard()
	}
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		dsn = path
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sim store: %w", err)
	}
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := db.AutoMigrate(&KerbalRecord{}, &VesselRecord{}, &PartRecord{}, &SeatRecord{}); err != nil {
		return nil, fmt.Errorf("migrate sim store: %w", err)
	}

	if path == "" {
		storeLogger.Debug("using in-memory sim store")
	} else {
		storeLogger.Debug("using sim store", "path", path)
	}
	return &Store{db: db, logger: storeLogger}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save replaces the stored world with roster and every live vessel.
func (s *Store) Save(ctx context.Context, roster *sim.Roster, vessels []*sim.Vessel) error {
	if roster == nil {
		return errors.New("roster is required")
	}
	kerbals := kerbalRecords(roster)
	vesselRows := vesselRecords(vessels)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&SeatRecord{}, &PartRecord{}, &VesselRecord{}, &KerbalRecord{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		if len(kerbals) > 0 {
			if err := tx.Create(&kerbals).Error; err != nil {
				return fmt.Errorf("save roster: %w", err)
			}
		}
		if len(vesselRows) > 0 {
			if err := tx.Create(&vesselRows).Error; err != nil {
				return fmt.Errorf("save vessels: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("sim store save failed", "err", err)
		return err
	}
	s.logger.Debug("sim store saved", "kerbals", len(kerbals), "vessels", len(vesselRows))
	return nil
}

// Load rebuilds the stored world. An empty store yields an empty roster and
// no vessels.
func (s *Store) Load(ctx context.Context, options ...sim.RosterOption) (*World, error) {
	var kerbals []KerbalRecord
	if err := s.db.WithContext(ctx).Order("position").Find(&kerbals).Error; err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	var vessels []VesselRecord
	err := s.db.WithContext(ctx).
		Preload("Parts", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Parts.Seats", func(db *gorm.DB) *gorm.DB { return db.Order("seat") }).
		Order("position").
		Find(&vessels).Error
	if err != nil {
		return nil, fmt.Errorf("load vessels: %w", err)
	}

	roster := sim.NewRoster(options...)
	byID := make(map[string]*host.Kerbal, len(kerbals))
	for _, rec := range kerbals {
		status, ok := host.ParseRosterStatus(rec.Status)
		if !ok {
			s.logger.Warn("unknown roster status, treating as available", "kerbal", rec.Name, "status", rec.Status)
		}
		byID[rec.ID] = roster.Restore(host.Kerbal{
			ID:        rec.ID,
			Name:      rec.Name,
			Status:    status,
			Courage:   rec.Courage,
			Stupidity: rec.Stupidity,
			Badass:    rec.Badass,
			Gender:    host.Gender(rec.Gender),
			Type:      host.KerbalType(rec.Type),
		})
	}

	world := &World{Roster: roster}
	for _, rec := range vessels {
		vessel := sim.RestoreVessel(rec.ID, rec.Name, rec.LandedAt)
		for _, partRec := range rec.Parts {
			part := vessel.RestorePart(partRec.ID, partRec.Title, partRec.Capacity)
			for _, seat := range partRec.Seats {
				member, ok := byID[seat.KerbalID]
				if !ok {
					s.logger.Warn("seat references unknown kerbal", "part_id", partRec.ID, "kerbal_id", seat.KerbalID)
					continue
				}
				part.AddCrewmember(member)
			}
		}
		world.Vessels = append(world.Vessels, vessel)
	}
	return world, nil
}

func kerbalRecords(roster *sim.Roster) []KerbalRecord {
	crew := roster.Crew()
	out := make([]KerbalRecord, 0, len(crew))
	for i, k := range crew {
		out = append(out, KerbalRecord{
			ID:        k.ID,
			Position:  i,
			Name:      k.Name,
			Status:    k.Status.String(),
			Courage:   k.Courage,
			Stupidity: k.Stupidity,
			Badass:    k.Badass,
			Gender:    string(k.Gender),
			Type:      string(k.Type),
		})
	}
	return out
}

func vesselRecords(vessels []*sim.Vessel) []VesselRecord {
	out := make([]VesselRecord, 0, len(vessels))
	for _, v := range vessels {
		if v == nil || !v.Alive() {
			continue
		}
		rec := VesselRecord{ID: v.ID(), Position: len(out), Name: v.Name(), LandedAt: v.LandedAt()}
		for i, p := range v.SimParts() {
			partRec := PartRecord{ID: p.ID(), VesselID: v.ID(), Position: i, Title: p.Title(), Capacity: p.CrewCapacity()}
			for seat, k := range p.Crew() {
				partRec.Seats = append(partRec.Seats, SeatRecord{PartID: p.ID(), Seat: seat, KerbalID: k.ID})
			}
			rec.Parts = append(rec.Parts, partRec)
		}
		out = append(out, rec)
	}
	return out
}
