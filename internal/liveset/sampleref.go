package liveset

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"setmend/internal/pathcodec"
	"setmend/internal/xmltree"
)

// Relative path types stored in RelativePathType. Collected means the
// sample lives under the project folder, the result of collect-and-save.
const (
	RelativeTypeUnset     = 0
	RelativeTypeAbsolute  = 1
	RelativeTypeCollected = 3
)

// SampleRef is a typed view over one SampleRef element. The same logical
// fields live in different tree shapes per format generation; all structural
// access goes through the set's schema.
type SampleRef struct {
	node    *xmltree.Node
	fileRef *xmltree.Node
	schema  refSchema

	Name         string
	Size         int64
	LastModified int64
	Crc          string

	// Absolute is the stored absolute path; Relative is the stored
	// project-relative path including the file name. Either may be empty.
	Absolute string
	Relative string

	projectRoot string
	osTag       pathcodec.OS
}

// SampleRefs parses every sample reference in the set into typed views.
// Results are cached; setters write through to the shared tree.
func (s *Set) SampleRefs() ([]*SampleRef, error) {
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	if !s.versionKnown {
		return nil, ErrVersionUnknown
	}
	if s.refs != nil {
		return s.refs, nil
	}
	projectRoot, _ := s.ProjectRoot()

	refs := make([]*SampleRef, 0)
	for _, node := range s.root.Iter("SampleRef") {
		fileRef := node.Child("FileRef")
		if fileRef == nil {
			continue
		}
		ref := &SampleRef{
			node:        node,
			fileRef:     fileRef,
			schema:      s.schema,
			projectRoot: projectRoot,
		}
		ref.LastModified = parseRefInt(node.FindOptional("LastModDate"))
		ref.Size = refFileSize(fileRef)
		if err := s.schema.parse(ref); err != nil {
			return nil, fmt.Errorf("parse sample reference: %w", err)
		}
		refs = append(refs, ref)
	}
	s.refs = refs
	return refs, nil
}

// AbsoluteExists reports whether the stored absolute path resolves on this
// machine.
func (r *SampleRef) AbsoluteExists() bool {
	if r.Absolute == "" {
		return false
	}
	_, err := os.Stat(r.Absolute)
	return err == nil
}

// RelativeExists reports whether the stored relative path resolves under the
// project root. Always false when no project root was found.
func (r *SampleRef) RelativeExists() bool {
	if r.Relative == "" || r.projectRoot == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(r.projectRoot, filepath.FromSlash(r.Relative)))
	return err == nil
}

// RelativeDir returns the directory part of the stored relative path, slash
// separated, without the file name.
func (r *SampleRef) RelativeDir() string {
	if r.Relative == "" {
		return ""
	}
	dir := strings.TrimSuffix(r.Relative, baseName(r.Relative))
	return strings.Trim(dir, "/")
}

// RelativeType returns the stored relative path type.
func (r *SampleRef) RelativeType() int {
	value, err := r.fileRef.FindAttr("RelativePathType", "Value")
	if err != nil {
		return RelativeTypeUnset
	}
	t, err := strconv.Atoi(value)
	if err != nil {
		return RelativeTypeUnset
	}
	return t
}

// SetAbsolute rewrites the stored absolute path.
func (r *SampleRef) SetAbsolute(path string) error {
	if err := r.schema.setAbsolute(r, path); err != nil {
		return err
	}
	r.Absolute = path
	return nil
}

// SetRelative rewrites the stored project-relative path. rel includes the
// file name and uses forward slashes.
func (r *SampleRef) SetRelative(rel string) error {
	if err := r.schema.setRelative(r, rel); err != nil {
		return err
	}
	r.Relative = rel
	return nil
}

// SetRelativeType rewrites the stored relative path type.
func (r *SampleRef) SetRelativeType(t int) {
	r.schema.setRelativeType(r, t)
}

// ClearSearchHints empties the browser search hints attached to the
// reference.
func (r *SampleRef) ClearSearchHints() {
	for _, hint := range r.node.Iter("SearchHint") {
		hint.RemoveChildren()
	}
}

// refFileSize reads the stored sample size. Not every generation stores it
// in the same element, and some store none at all.
func refFileSize(fileRef *xmltree.Node) int64 {
	for _, tag := range []string{"OriginalFileSize", "FileSize"} {
		var node *xmltree.Node
		if fileRef.Tag == tag {
			node = fileRef
		} else {
			node = fileRef.Descendant(tag)
		}
		if node == nil {
			continue
		}
		if size, err := strconv.ParseInt(node.AttrDefault("Value", ""), 10, 64); err == nil {
			return size
		}
	}
	return 0
}

func parseRefInt(node *xmltree.Node) int64 {
	if node == nil {
		return 0
	}
	value, err := strconv.ParseInt(node.AttrDefault("Value", ""), 10, 64)
	if err != nil {
		return 0
	}
	return value
}

// baseName returns the final path component for either separator style.
// Stored paths keep their origin OS separators regardless of the machine
// reading them.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
