// pkg/engine/capability.go
package engine

// CapabilityFlag names one boolean capability a module can advertise.
// Selection code asks for flags through Capability.Has, which resolves
// them with an explicit switch rather than any reflective lookup.
type CapabilityFlag string

const (
	CanScrapeStatic     CapabilityFlag = "can_scrape_static"
	CanScrapeDynamic    CapabilityFlag = "can_scrape_dynamic"
	CanHandleJavaScript CapabilityFlag = "can_handle_javascript"
	CanAuthenticate     CapabilityFlag = "can_authenticate"
	CanHandleAPI        CapabilityFlag = "can_handle_api"
	CanProcessData      CapabilityFlag = "can_process_data"
	CanCleanData        CapabilityFlag = "can_clean_data"
	CanTransformData    CapabilityFlag = "can_transform_data"
	CanAggregate        CapabilityFlag = "can_aggregate"
	CanFilter           CapabilityFlag = "can_filter"
	CanSort             CapabilityFlag = "can_sort"
	CanVisualize        CapabilityFlag = "can_visualize"
	CanCreateCharts     CapabilityFlag = "can_create_charts"
	CanCreateMaps       CapabilityFlag = "can_create_maps"
	CanExportCSV        CapabilityFlag = "can_export_csv"
	CanExportJSON       CapabilityFlag = "can_export_json"
	CanExportExcel      CapabilityFlag = "can_export_excel"
)

// SpeedClass is a coarse performance hint.
type SpeedClass string

const (
	SpeedFast   SpeedClass = "fast"
	SpeedMedium SpeedClass = "medium"
	SpeedSlow   SpeedClass = "slow"
)

// MemoryClass is a coarse memory-footprint hint.
type MemoryClass string

const (
	MemoryLow    MemoryClass = "low"
	MemoryMedium MemoryClass = "medium"
	MemoryHigh   MemoryClass = "high"
)

// Capability describes what a module can do, which formats it speaks,
// and what it needs from the environment.
type Capability struct {
	CanScrapeStatic     bool
	CanScrapeDynamic    bool
	CanHandleJavaScript bool
	CanAuthenticate     bool
	CanHandleAPI        bool
	CanProcessData      bool
	CanCleanData        bool
	CanTransformData    bool
	CanAggregate        bool
	CanFilter           bool
	CanSort             bool
	CanVisualize        bool
	CanCreateCharts     bool
	CanCreateMaps       bool
	CanExportCSV        bool
	CanExportJSON       bool
	CanExportExcel      bool

	InputFormats  []string
	OutputFormats []string

	MaxConcurrent int
	Speed         SpeedClass
	Memory        MemoryClass

	RequiresBrowser  bool
	RequiresAPIKey   bool
	RequiresDatabase bool
}

// Has reports whether the named boolean capability is set.
func (c Capability) Has(flag CapabilityFlag) bool {
	switch flag {
	case CanScrapeStatic:
		return c.CanScrapeStatic
	case CanScrapeDynamic:
		return c.CanScrapeDynamic
	case CanHandleJavaScript:
		return c.CanHandleJavaScript
	case CanAuthenticate:
		return c.CanAuthenticate
	case CanHandleAPI:
		return c.CanHandleAPI
	case CanProcessData:
		return c.CanProcessData
	case CanCleanData:
		return c.CanCleanData
	case CanTransformData:
		return c.CanTransformData
	case CanAggregate:
		return c.CanAggregate
	case CanFilter:
		return c.CanFilter
	case CanSort:
		return c.CanSort
	case CanVisualize:
		return c.CanVisualize
	case CanCreateCharts:
		return c.CanCreateCharts
	case CanCreateMaps:
		return c.CanCreateMaps
	case CanExportCSV:
		return c.CanExportCSV
	case CanExportJSON:
		return c.CanExportJSON
	case CanExportExcel:
		return c.CanExportExcel
	default:
		return false
	}
}

// SupportsInput reports whether the module accepts the given data format.
func (c Capability) SupportsInput(format string) bool {
	for _, f := range c.InputFormats {
		if f == format {
			return true
		}
	}
	return false
}

// SupportsOutput reports whether the module can emit the given data format.
func (c Capability) SupportsOutput(format string) bool {
	for _, f := range c.OutputFormats {
		if f == format {
			return true
		}
	}
	return false
}

// Pre-built capability profiles for the stock module families. Custom
// modules are free to declare their own Capability from scratch.
var (
	StaticScraperCapability = Capability{
		CanScrapeStatic: true,
		InputFormats:    []string{"html", "xml"},
		OutputFormats:   []string{"json", "csv"},
		MaxConcurrent:   5,
		Speed:           SpeedFast,
		Memory:          MemoryLow,
	}

	DynamicScraperCapability = Capability{
		CanScrapeStatic:     true,
		CanScrapeDynamic:    true,
		CanHandleJavaScript: true,
		CanAuthenticate:     true,
		InputFormats:        []string{"html", "javascript"},
		OutputFormats:       []string{"json", "csv"},
		MaxConcurrent:       2,
		Speed:               SpeedMedium,
		Memory:              MemoryHigh,
		RequiresBrowser:     true,
	}

	APIClientCapability = Capability{
		CanHandleAPI:   true,
		InputFormats:   []string{"api", "rest", "graphql"},
		OutputFormats:  []string{"json"},
		MaxConcurrent:  10,
		Speed:          SpeedFast,
		Memory:         MemoryLow,
		RequiresAPIKey: true,
	}

	DataTransformerCapability = Capability{
		CanProcessData:   true,
		CanTransformData: true,
		CanAggregate:     true,
		CanFilter:        true,
		CanSort:          true,
		InputFormats:     []string{"csv", "json"},
		OutputFormats:    []string{"csv", "json"},
		MaxConcurrent:    1,
		Speed:            SpeedMedium,
		Memory:           MemoryMedium,
	}

	ChartCreatorCapability = Capability{
		CanVisualize:    true,
		CanCreateCharts: true,
		InputFormats:    []string{"csv", "json"},
		OutputFormats:   []string{"png", "svg", "html"},
		MaxConcurrent:   1,
		Speed:           SpeedMedium,
		Memory:          MemoryMedium,
	}

	MapCreatorCapability = Capability{
		CanVisualize:  true,
		CanCreateMaps: true,
		InputFormats:  []string{"csv", "json", "geojson"},
		OutputFormats: []string{"html", "png"},
		MaxConcurrent: 1,
		Speed:         SpeedSlow,
		Memory:        MemoryHigh,
	}

	CSVExporterCapability = Capability{
		CanExportCSV:  true,
		InputFormats:  []string{"json", "csv"},
		OutputFormats: []string{"csv"},
		MaxConcurrent: 1,
		Speed:         SpeedFast,
		Memory:        MemoryLow,
	}

	JSONExporterCapability = Capability{
		CanExportJSON: true,
		InputFormats:  []string{"json", "csv"},
		OutputFormats: []string{"json"},
		MaxConcurrent: 1,
		Speed:         SpeedFast,
		Memory:        MemoryLow,
	}
)
