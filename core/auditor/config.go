package auditor

// Source kinds understood by the configuration.
const (
	SourceLocal  = "local"
	SourceObject = "object"
)

// Config holds configuration for the auditor.
type Config struct {
	// CacheDir is where fetched dumps are cached between passes.
	CacheDir string `mapstructure:"cache_dir" default:"/var/cache/rse-auditor"`
	// ResultsDir is where result files are written.
	ResultsDir string `mapstructure:"results_dir" default:"/var/lib/rse-auditor/results"`
	// Delta is how many days older/newer than the storage dump the
	// catalog dumps must be.
	Delta int `mapstructure:"delta" default:"3"`
	// Threshold is the fraction of the RSE's file count above which an
	// anomaly class is considered a broken dump rather than real damage.
	Threshold float64 `mapstructure:"threshold" default:"0.1"`
	// Algorithm selects the consistency check variant
	// (streaming, preload, sortmerge).
	Algorithm string `mapstructure:"algorithm" default:"streaming"`
	// Source selects the dump acquisition strategy (local, object).
	Source string `mapstructure:"source" default:"local"`
	// DumpsDir is the directory scanned by the local source.
	DumpsDir string `mapstructure:"dumps_dir" default:"/var/lib/rse-auditor/dumps"`
	// DumpsPrefix is the object key prefix scanned by the object source.
	DumpsPrefix string `mapstructure:"dumps_prefix" default:"dumps"`
	// KeepDumps keeps cached dumps after a run instead of removing them.
	KeepDumps bool `mapstructure:"keep_dumps" default:"false"`
	// NoDeclaration skips all catalog side effects after classification.
	NoDeclaration bool `mapstructure:"no_declaration" default:"false"`
	// Workers bounds how many RSEs are audited in parallel.
	Workers int `mapstructure:"workers" default:"4"`
}
