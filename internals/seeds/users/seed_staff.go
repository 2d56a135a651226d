package users

import (
	"os"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	sedeModel "studioku_backend/internals/features/studio/sedes/model"
	authService "studioku_backend/internals/features/users/auth/service"
	"studioku_backend/internals/features/users/user/model"
)

type StaffSeed struct {
	UserName string   `json:"user_name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     string   `json:"role"`
	Sedes    []string `json:"sedes"` // sede names; empty = every sede
}

// SeedStaffFromJSON creates admin and instructor accounts. Existing emails
// are skipped so the seed can be re-run.
func SeedStaffFromJSON(db *gorm.DB, filePath string) {
	log.Info().Str("file", filePath).Msg("seeding staff")

	raw, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("read staff seed")
	}
	var inputs []StaffSeed
	if err := sonic.Unmarshal(raw, &inputs); err != nil {
		log.Fatal().Err(err).Msg("decode staff seed")
	}

	for _, data := range inputs {
		u := model.UserModel{UserName: data.UserName, Email: data.Email, Role: data.Role, IsActive: true}
		u.SetDefaultValues()
		if !u.IsStaff() {
			log.Warn().Str("email", u.Email).Str("role", u.Role).Msg("not a staff role, skipped")
			continue
		}

		var existing model.UserModel
		if err := db.Where("email = ?", u.Email).First(&existing).Error; err == nil {
			log.Info().Str("email", u.Email).Msg("user exists, skipped")
			continue
		}

		hash, err := authService.HashPassword(data.Password)
		if err != nil {
			log.Error().Err(err).Str("email", u.Email).Msg("hash password failed")
			continue
		}
		u.Password = hash

		if len(data.Sedes) > 0 {
			var ids []string
			if err := db.Model(&sedeModel.SedeModel{}).
				Where("sede_name IN ?", data.Sedes).
				Pluck("sede_id", &ids).Error; err != nil {
				log.Error().Err(err).Str("email", u.Email).Msg("resolve sedes failed")
				continue
			}
			u.SedeIDs = pq.StringArray(ids)
		}

		if err := db.Create(&u).Error; err != nil {
			log.Error().Err(err).Str("email", u.Email).Msg("insert user failed")
			continue
		}
		log.Info().Str("email", u.Email).Str("role", u.Role).Msg("staff inserted")
	}
}
