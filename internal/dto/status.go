package dto

// HealthDTO /health 返回的运行状态
type HealthDTO struct {
	OK      bool             `json:"ok"`
	App     AppStatusDTO     `json:"app"`
	Storage StorageStatusDTO `json:"storage"`
	Engine  EngineStatusDTO  `json:"engine"`
}

type AppStatusDTO struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	StartedAt  string `json:"started_at"`
	UptimeSec  int64  `json:"uptime_sec"`
	ConfigPath string `json:"config_path,omitempty"`
}

type StorageStatusDTO struct {
	DBPath         string `json:"db_path"`
	SchemaVersion  int    `json:"schema_version"`
	SafeMode       bool   `json:"safe_mode"`
	SafeModeReason string `json:"safe_mode_reason,omitempty"`
}

type EngineStatusDTO struct {
	Clans                 int   `json:"clans"`
	EventSubscribers      int   `json:"event_subscribers"`
	EventsDropped         int64 `json:"events_dropped"`
	FullChancesPerDay     int   `json:"full_chances_per_day"`
	AdditionChancesPerDay int   `json:"addition_chances_per_day"`
	MaxCycleLead          int   `json:"max_cycle_lead"`
}
