package engagement

import "github.com/exhale-app/exhale/internal/domain"

// giftXPValues are the possible XP gift amounts.
var giftXPValues = []int64{10, 20, 30, 50, 100}

var giftTips = []string{
	"Cravings peak after 3 to 5 minutes. Wait it out with a glass of water.",
	"Change your morning routine so coffee no longer cues a cigarette.",
	"Keep your hands busy: a pen, a stress ball, or a rubber band.",
	"Write down what you will buy with the money you save this month.",
}

var giftBadges = []string{
	"Fresh Air badge",
	"Clear Lungs badge",
	"Steady Heart badge",
}

// RollGift draws a random daily gift. XP gifts come up half the time; the
// rest split between tips and cosmetic badges.
func RollGift(rng domain.Random) domain.Gift {
	switch roll := rng.Intn(4); {
	case roll < 2:
		xp := giftXPValues[rng.Intn(len(giftXPValues))]
		return domain.Gift{Type: domain.GiftXP, Description: "Bonus experience", XP: &xp}
	case roll == 2:
		return domain.Gift{Type: domain.GiftTip, Description: giftTips[rng.Intn(len(giftTips))]}
	default:
		return domain.Gift{Type: domain.GiftBadge, Description: giftBadges[rng.Intn(len(giftBadges))]}
	}
}

// GiftAvailable reports whether a gift can be claimed today.
func GiftAvailable(lastGiftDate *domain.Date, today domain.Date) bool {
	return lastGiftDate == nil || !lastGiftDate.Equal(today)
}
