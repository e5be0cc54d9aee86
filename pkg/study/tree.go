package study

// TechnicalFor returns the UUID of the technical describing dataset. A lone
// technical without a dataset list describes every dataset.
func (t *Tree) TechnicalFor(dataset string, uuids map[string]string) string {
	switch len(t.Technicals) {
	case 0:
		return ""
	case 1:
		tech := t.Technicals[0]
		if len(tech.Datasets) == 0 || contains(tech.Datasets, dataset) {
			return uuids[tech.Name]
		}
		return ""
	}
	for _, tech := range t.Technicals {
		if contains(tech.Datasets, dataset) {
			return uuids[tech.Name]
		}
	}
	return ""
}

// DatasetNames returns the datasets in upload order.
func (t *Tree) DatasetNames() []string {
	names := make([]string, 0, len(t.Datasets))
	seen := make(map[string]bool, len(t.Datasets))
	for _, name := range t.DatasetOrder {
		if _, ok := t.Datasets[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	return names
}

// PendingPhenotypes returns the names of the phenotypes not yet on the server.
func (t *Tree) PendingPhenotypes() []string {
	var names []string
	for _, p := range t.Phenotypes {
		if !p.Exists() {
			names = append(names, p.Name)
		}
	}
	return names
}

// PendingTechnicals returns the names of the technicals not yet on the server.
func (t *Tree) PendingTechnicals() []string {
	var names []string
	for _, tech := range t.Technicals {
		if !tech.Exists() {
			names = append(names, tech.Name)
		}
	}
	return names
}
