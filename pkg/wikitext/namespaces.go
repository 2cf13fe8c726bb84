package wikitext

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed namespaces.yml
var namespacesYAML []byte

// Namespace describes one wiki namespace.
type Namespace struct {
	ID        int      `yaml:"id"`
	Name      string   `yaml:"name"`
	Aliases   []string `yaml:"aliases"`
	IsSubject bool     `yaml:"issubject"`
	IsTalk    bool     `yaml:"istalk"`
	Content   bool     `yaml:"content"`
}

var (
	// namespaceData is keyed by canonical English namespace key.
	namespaceData map[string]*Namespace
	// namespaceByID maps a namespace ID to its data.
	namespaceByID map[int]*Namespace
	// namespaceCanonical maps every lowercased name, key, and alias to
	// the canonical namespace name.
	namespaceCanonical map[string]string
)

func init() {
	if err := yaml.Unmarshal(namespacesYAML, &namespaceData); err != nil {
		panic(fmt.Sprintf("wikitext: bad embedded namespace data: %v", err))
	}
	namespaceByID = map[int]*Namespace{}
	namespaceCanonical = map[string]string{}
	for key, ns := range namespaceData {
		namespaceByID[ns.ID] = ns
		namespaceCanonical[strings.ToLower(key)] = ns.Name
		if ns.Name != "" {
			namespaceCanonical[strings.ToLower(ns.Name)] = ns.Name
		}
		for _, alias := range ns.Aliases {
			namespaceCanonical[strings.ToLower(alias)] = ns.Name
		}
	}
}

// NamespaceByName returns the namespace for a canonical name, key, or
// alias, ignoring case.
func NamespaceByName(name string) (*Namespace, bool) {
	canonical, ok := namespaceCanonical[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	for _, ns := range namespaceData {
		if ns.Name == canonical {
			return ns, true
		}
	}
	return nil, false
}

// NamespaceByID returns the namespace with the given ID.
func NamespaceByID(id int) (*Namespace, bool) {
	ns, ok := namespaceByID[id]
	return ns, ok
}

// namespaceName returns the canonical name for an ID, or "".
func namespaceName(id int) string {
	if ns, ok := namespaceByID[id]; ok {
		return ns.Name
	}
	return ""
}

// splitNamespace splits a title on its first colon and resolves the
// prefix to a namespace. ok is false when the prefix is not a known
// namespace.
func splitNamespace(title string) (ns *Namespace, rest string, ok bool) {
	i := strings.Index(title, ":")
	if i < 0 {
		return nil, title, false
	}
	canonical, found := namespaceCanonical[strings.ToLower(strings.TrimSpace(title[:i]))]
	if !found {
		return nil, title, false
	}
	for _, n := range namespaceData {
		if n.Name == canonical {
			return n, title[i+1:], true
		}
	}
	return nil, title, false
}
