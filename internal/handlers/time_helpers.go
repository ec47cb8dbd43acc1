package handlers

import (
	"time"

	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
	"github.com/BeautifulStudio01/salon-scheduler/internal/timezone"
)

// resuelve el huso horario oficial del estudio
func locationFromStudio(studio *models.Studio) *time.Location {
	if studio != nil {
		return timezone.Location(studio.Timezone)
	}
	return timezone.Location("")
}

func parseDateInStudio(studio *models.Studio, dateStr string) (time.Time, error) {
	return time.ParseInLocation(
		"2006-01-02",
		dateStr,
		locationFromStudio(studio),
	)
}

func parseDateTimeInStudio(
	studio *models.Studio,
	dateStr string,
	timeStr string,
) (time.Time, error) {
	return time.ParseInLocation(
		"2006-01-02 15:04",
		dateStr+" "+timeStr,
		locationFromStudio(studio),
	)
}
