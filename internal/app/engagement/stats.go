package engagement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/exhale-app/exhale/internal/domain"
)

// MinutesPerCigarette is the life expectancy regained per cigarette not smoked.
const MinutesPerCigarette = 11

// DaysSinceQuit returns whole days elapsed since quitAt; partial days
// truncate and a future quit date yields 0.
func DaysSinceQuit(quitAt, now time.Time) int64 {
	if quitAt.IsZero() || now.Before(quitAt) {
		return 0
	}
	return int64(now.Sub(quitAt) / (24 * time.Hour))
}

// CigarettesAvoided returns days * perDay.
func CigarettesAvoided(days int64, perDay int) int64 {
	if days <= 0 || perDay <= 0 {
		return 0
	}
	return days * int64(perDay)
}

// MoneySaved returns round(avoided / perPack * pricePerPack) in whole currency
// units, rounding half away from zero. Decimal arithmetic keeps the division
// exact for typical prices.
func MoneySaved(avoided int64, perPack int, pricePerPack float64) int64 {
	if avoided <= 0 || pricePerPack <= 0 {
		return 0
	}
	if perPack <= 0 {
		perPack = domain.DefaultCigarettesPerPack
	}
	saved := decimal.NewFromInt(avoided).
		Mul(decimal.NewFromFloat(pricePerPack)).
		Div(decimal.NewFromInt(int64(perPack))).
		Round(0)
	return saved.IntPart()
}

// LifeRegainedMinutes returns avoided * MinutesPerCigarette.
func LifeRegainedMinutes(avoided int64) int64 {
	if avoided <= 0 {
		return 0
	}
	return avoided * MinutesPerCigarette
}

// SplitMinutes breaks minutes into days, hours and minutes.
func SplitMinutes(minutes int64) domain.LifeRegained {
	if minutes < 0 {
		minutes = 0
	}
	return domain.LifeRegained{
		Days:    minutes / (24 * 60),
		Hours:   minutes % (24 * 60) / 60,
		Minutes: minutes % 60,
	}
}

// Project computes the derived statistics for a given number of smoke-free days.
func Project(profile domain.UserProfile, days int64) domain.DerivedStats {
	p := profile.Normalized()
	avoided := CigarettesAvoided(days, p.CigarettesPerDay)
	minutes := LifeRegainedMinutes(avoided)
	if days < 0 {
		days = 0
	}
	return domain.DerivedStats{
		DaysSinceQuit:       days,
		CigarettesAvoided:   avoided,
		MoneySaved:          MoneySaved(avoided, p.CigarettesPerPack, p.PricePerPack),
		LifeRegainedMinutes: minutes,
		LifeRegained:        SplitMinutes(minutes),
	}
}

// Derive computes the live statistics for profile at now.
func Derive(profile domain.UserProfile, now time.Time) domain.DerivedStats {
	return Project(profile, DaysSinceQuit(profile.QuitAt, now))
}
