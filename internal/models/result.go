package models

// ScanResult holds everything a scan produced
type ScanResult struct {
	Files    []PackageFile
	Findings []Finding
}

// DependencyCount returns the number of dependency records across all files
func (r *ScanResult) DependencyCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Deps)
	}
	return n
}

// HasFindings returns true if any declaration or file was reported
func (r *ScanResult) HasFindings() bool {
	return len(r.Findings) > 0
}
