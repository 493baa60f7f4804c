package earnedvalue

import "time"

// Snapshot is an immutable earned-value record as of a data date. A
// correction is a new snapshot with its own data date, never an edit.
type Snapshot struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	DataDate  time.Time `json:"data_date"`

	BAC float64 `json:"bac"`
	PV  float64 `json:"pv"`
	EV  float64 `json:"ev"`
	AC  float64 `json:"ac"`

	SV   float64 `json:"sv"`
	CV   float64 `json:"cv"`
	SPI  float64 `json:"spi"`
	CPI  float64 `json:"cpi"`
	EAC  float64 `json:"eac"`
	ETC  float64 `json:"etc"`
	VAC  float64 `json:"vac"`
	TCPI float64 `json:"tcpi"`

	CreatedAt time.Time `json:"created_at"`
}
