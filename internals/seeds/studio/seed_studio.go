package studio

import (
	"os"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	membershipModel "studioku_backend/internals/features/finance/memberships/model"
	scheduleModel "studioku_backend/internals/features/studio/schedules/model"
	sedeModel "studioku_backend/internals/features/studio/sedes/model"
	"studioku_backend/internals/helpers/dbtime"
)

type ScheduleSeed struct {
	DayOfWeek       int        `json:"day_of_week"`
	StartTime       dbtime.Tod `json:"start_time"`
	DurationMinutes int        `json:"duration_minutes"`
	ClassType       string     `json:"class_type"`
	Capacity        int        `json:"capacity"`
}

type SedeSeed struct {
	Name      string         `json:"name"`
	Address   *string        `json:"address"`
	Phone     *string        `json:"phone"`
	Timezone  *string        `json:"timezone"`
	Schedules []ScheduleSeed `json:"schedules"`
}

type MembershipSeed struct {
	Name            string  `json:"name"`
	Kind            string  `json:"kind"`
	ClassesPerMonth *int    `json:"classes_per_month"`
	Price           int64   `json:"price"`
	ValidityDays    *int    `json:"validity_days"`
	Sede            *string `json:"sede"` // sede name; empty = global
}

type StudioSeed struct {
	Sedes       []SedeSeed       `json:"sedes"`
	Memberships []MembershipSeed `json:"memberships"`
}

// SeedStudioFromJSON inserts sedes (with their weekly timetable) and the
// membership catalog. Rows matched by name are skipped.
func SeedStudioFromJSON(db *gorm.DB, filePath string) {
	log.Info().Str("file", filePath).Msg("seeding studio")

	raw, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("read studio seed")
	}
	var in StudioSeed
	if err := sonic.Unmarshal(raw, &in); err != nil {
		log.Fatal().Err(err).Msg("decode studio seed")
	}

	sedeIDs := make(map[string]uuid.UUID, len(in.Sedes))
	for _, s := range in.Sedes {
		var existing sedeModel.SedeModel
		if err := db.Where("sede_name = ?", s.Name).First(&existing).Error; err == nil {
			log.Info().Str("sede", s.Name).Msg("sede exists, skipped")
			sedeIDs[s.Name] = existing.SedeID
			continue
		}

		sede := sedeModel.SedeModel{
			SedeName:     s.Name,
			SedeAddress:  s.Address,
			SedePhone:    s.Phone,
			SedeTimezone: s.Timezone,
			SedeIsActive: true,
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&sede).Error; err != nil {
				return err
			}
			for _, sc := range s.Schedules {
				row := scheduleModel.ScheduleModel{
					ScheduleSedeID:          sede.SedeID,
					ScheduleDayOfWeek:       sc.DayOfWeek,
					ScheduleStartTime:       sc.StartTime,
					ScheduleDurationMinutes: sc.DurationMinutes,
					ScheduleClassType:       scheduleModel.ClassType(sc.ClassType),
					ScheduleCapacity:        sc.Capacity,
					ScheduleIsActive:        true,
				}
				if row.ScheduleDurationMinutes <= 0 {
					row.ScheduleDurationMinutes = 50
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Error().Err(err).Str("sede", s.Name).Msg("insert sede failed")
			continue
		}
		sedeIDs[s.Name] = sede.SedeID
		log.Info().Str("sede", s.Name).Int("schedules", len(s.Schedules)).Msg("sede inserted")
	}

	for _, m := range in.Memberships {
		var existing membershipModel.MembershipModel
		if err := db.Where("membership_name = ?", m.Name).First(&existing).Error; err == nil {
			log.Info().Str("membership", m.Name).Msg("membership exists, skipped")
			continue
		}

		row := membershipModel.MembershipModel{
			MembershipName:            m.Name,
			MembershipKind:            membershipModel.MembershipKind(m.Kind),
			MembershipClassesPerMonth: m.ClassesPerMonth,
			MembershipScope:           membershipModel.MembershipScopeGlobal,
			MembershipPrice:           m.Price,
			MembershipValidityDays:    m.ValidityDays,
			MembershipIsActive:        true,
		}
		if m.Sede != nil && *m.Sede != "" {
			id, ok := sedeIDs[*m.Sede]
			if !ok {
				log.Warn().Str("membership", m.Name).Str("sede", *m.Sede).Msg("unknown sede, skipped")
				continue
			}
			row.MembershipScope = membershipModel.MembershipScopeSede
			row.MembershipSedeID = &id
		}
		if err := db.Create(&row).Error; err != nil {
			log.Error().Err(err).Str("membership", m.Name).Msg("insert membership failed")
			continue
		}
		log.Info().Str("membership", m.Name).Msg("membership inserted")
	}
}
