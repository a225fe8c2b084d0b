package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"github.com/ethanolivertroy/pyproject-deps/internal/cache"
	"github.com/ethanolivertroy/pyproject-deps/internal/models"
	"github.com/ethanolivertroy/pyproject-deps/internal/parsers"
	"github.com/ethanolivertroy/pyproject-deps/internal/versioning"
)

// skipDirs are never descended into during directory walks
var skipDirs = []string{
	"node_modules", ".git", "vendor", "__pycache__", ".venv", "venv", ".tox", ".nox", ".hatch",
}

// Scanner orchestrates dependency extraction across files and directories
type Scanner struct {
	config  *models.Config
	parsers []parsers.Parser
	cache   *cache.Cache
}

// New creates a new Scanner with the given configuration
func New(config *models.Config) (*Scanner, error) {
	var c *cache.Cache
	var err error

	if !config.NoCache {
		if config.CacheDir != "" {
			c, err = cache.NewAt(config.CacheDir, config.CacheTTL)
		} else {
			c, err = cache.New("pyproject-deps", config.CacheTTL)
		}
		if err != nil {
			// Non-fatal: continue without cache
			log.Warn().Err(err).Msg("cache unavailable, continuing without it")
			c = nil
		}
	}

	return &Scanner{
		config:  config,
		parsers: parsers.GetAllParsers(),
		cache:   c,
	}, nil
}

// Scan extracts dependencies from every matching file under the configured paths
func (s *Scanner) Scan(ctx context.Context) (*models.ScanResult, error) {
	result := &models.ScanResult{}

	for _, path := range s.config.Paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("failed to stat path " + path).
				WithCause(err)
		}

		if !info.IsDir() {
			// Explicitly named files must parse
			pf, err := s.parseFile(path)
			if err != nil {
				return nil, err
			}
			if pf != nil {
				s.collect(result, pf)
			} else {
				log.Warn().Str("file", path).Msg("no parser matches file, skipping")
			}
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			if d.IsDir() {
				if p != path && s.skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			pf, err := s.parseFile(p)
			if err != nil {
				if parsers.IsParseError(err) {
					log.Warn().Err(err).Str("file", p).Msg("skipping unparseable file")
					result.Findings = append(result.Findings, models.Finding{
						Kind:       models.FindingParseError,
						SourceFile: p,
						Message:    err.Error(),
					})
					return nil
				}
				return err
			}
			if pf != nil {
				s.collect(result, pf)
			}
			return nil
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to walk " + path).
				WithCause(err)
		}
	}

	log.Debug().
		Int("files", len(result.Files)).
		Int("dependencies", result.DependencyCount()).
		Int("findings", len(result.Findings)).
		Msg("scan complete")

	return result, nil
}

func (s *Scanner) skipDir(name string) bool {
	return slices.Contains(skipDirs, name) || slices.Contains(s.config.Exclude, name)
}

// collect records a parsed file and the findings for its declarations
func (s *Scanner) collect(result *models.ScanResult, pf *models.PackageFile) {
	result.Files = append(result.Files, *pf)

	for _, dep := range pf.Deps {
		if !dep.Matched() {
			result.Findings = append(result.Findings, models.Finding{
				Kind:       models.FindingUnmatched,
				Dependency: dep,
				SourceFile: dep.SourceFile,
				Line:       dep.Line,
				Message:    "declaration does not match the dependency grammar: " + dep.Raw,
			})
			continue
		}
		if !s.config.ValidateConstraints {
			continue
		}
		if err := versioning.Validate(dep.CurrentValue); err != nil {
			result.Findings = append(result.Findings, models.Finding{
				Kind:       models.FindingInvalidConstraint,
				Dependency: dep,
				SourceFile: dep.SourceFile,
				Line:       dep.Line,
				Message:    err.Error(),
			})
		}
	}
}

// parseFile attempts to parse a file with any matching parser
func (s *Scanner) parseFile(path string) (*models.PackageFile, error) {
	for _, parser := range s.parsers {
		if !parser.CanParse(path) {
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to read " + path).
				WithCause(err)
		}

		if s.cache != nil {
			if pf, ok := s.cache.GetPackageFile(path, content); ok {
				log.Debug().Str("file", path).Msg("cache hit")
				return pf, nil
			}
		}

		pf, err := parser.Parse(path, content)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("file", path).Int("dependencies", len(pf.Deps)).Msg("extracted dependencies")

		if s.cache != nil {
			if err := s.cache.SetPackageFile(path, content, pf); err != nil {
				log.Warn().Err(err).Str("file", path).Msg("failed to cache extraction result")
			}
		}
		return pf, nil
	}

	return nil, nil // No matching parser
}
