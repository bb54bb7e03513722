package liveset

import (
	"os"
	"strings"

	"setmend/internal/pathcodec"
	"setmend/internal/xmltree"
)

// Plugin is one plugin reference found in the set. Audio Units are stored
// without paths and can never be verified on disk.
type Plugin struct {
	Name         string
	Path         string
	Exists       bool
	Unverifiable bool
}

// Plugins lists every VST and Audio Unit reference in the set. VST paths
// are checked against the local filesystem; pre-11 sets store the plugin
// directory as a hex blob that decodes like any other path.
func (s *Set) Plugins() ([]Plugin, error) {
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	var plugins []Plugin
	for _, desc := range s.root.Iter("PluginDesc") {
		for _, vst := range desc.Iter("VstPluginInfo") {
			plugins = append(plugins, s.parseVstPlugin(vst))
		}
		for _, au := range desc.Iter("AuPluginInfo") {
			name, _ := au.FindAttr("Name", "Value")
			manufacturer, _ := au.FindAttr("Manufacturer", "Value")
			if manufacturer != "" {
				name = manufacturer + ": " + name
			}
			plugins = append(plugins, Plugin{Name: name, Unverifiable: true})
		}
	}
	return plugins, nil
}

func (s *Set) parseVstPlugin(vst *xmltree.Node) Plugin {
	name, _ := vst.FindAttr("FileName", "Value")

	// Newer sets store the full path as a string; older ones store the
	// containing directory as a hex blob plus the file name separately.
	if pathEl := vst.Descendant("Path"); pathEl != nil {
		full := pathEl.AttrDefault("Value", "")
		if full != "" && strings.ContainsAny(full, `/\`) {
			return Plugin{Name: baseName(full), Path: full, Exists: pathExists(full)}
		}
		if full != "" {
			// Bare file name with no directory; nothing to verify against.
			return Plugin{Name: full}
		}
	}

	dirEl := vst.Descendant("Dir")
	if dirEl == nil {
		return Plugin{Name: name}
	}
	data := dirEl.Child("Data")
	if data == nil || data.Text == "" {
		return Plugin{Name: name}
	}
	blob, err := pathcodec.DecodeHexText(data.Text)
	if err != nil {
		return Plugin{Name: name}
	}
	dir, _, err := pathcodec.Decode(blob)
	if err != nil {
		return Plugin{Name: name}
	}
	full := joinWithStoredSeparator(dir, name)
	return Plugin{Name: name, Path: full, Exists: pathExists(full)}
}

// joinWithStoredSeparator joins using whichever separator the stored path
// already uses, since set paths keep their origin OS separators.
func joinWithStoredSeparator(dir, name string) string {
	sep := "/"
	if strings.Contains(dir, `\`) && !strings.Contains(dir, "/") {
		sep = `\`
	}
	if strings.HasSuffix(dir, sep) {
		return dir + name
	}
	return dir + sep + name
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
