package liveset

import (
	"fmt"
	"strings"

	"setmend/internal/hexblock"
	"setmend/internal/pathcodec"
	"setmend/internal/xmltree"
)

// refSchema abstracts the two sample-reference tree shapes. Live 11 replaced
// the per-OS binary path blobs with plain string attributes; a strategy is
// selected once at version detection and every structural access dispatches
// through it.
type refSchema interface {
	parse(ref *SampleRef) error
	setAbsolute(ref *SampleRef, path string) error
	setRelative(ref *SampleRef, rel string) error
	setRelativeType(ref *SampleRef, relType int)
}

// legacySchema handles pre-11 sets: absolute paths as hex-encoded blobs in
// Data, relative paths as RelativePathElement children with one Dir each.
type legacySchema struct{}

func (legacySchema) parse(ref *SampleRef) error {
	if data := ref.fileRef.Child("Data"); data != nil && data.Text != "" {
		blob, err := pathcodec.DecodeHexText(data.Text)
		if err != nil {
			return fmt.Errorf("decode path data: %w", err)
		}
		path, osTag, err := pathcodec.Decode(blob)
		ref.osTag = osTag
		if err != nil {
			return fmt.Errorf("decode path blob: %w", err)
		}
		ref.Absolute = path
	}

	name, err := ref.fileRef.FindAttr("Name", "Value")
	if err != nil {
		return fmt.Errorf("read sample name: %w", err)
	}
	ref.Name = name

	if crc := ref.fileRef.Descendant("Crc"); crc != nil {
		ref.Crc = crc.AttrDefault("Value", "0")
	} else {
		ref.Crc = "0"
	}

	hasRelative, _ := ref.fileRef.FindAttr("HasRelativePath", "Value")
	relType, _ := ref.fileRef.FindAttr("RelativePathType", "Value")
	if hasRelative == "true" && relType == "3" {
		if relative := ref.fileRef.Child("RelativePath"); relative != nil {
			dirs := make([]string, 0, len(relative.Children)+1)
			for _, element := range relative.Children {
				if element.Tag == "RelativePathElement" {
					dirs = append(dirs, element.AttrDefault("Dir", ""))
				}
			}
			dirs = append(dirs, name)
			ref.Relative = strings.Join(dirs, "/")
		}
	}
	return nil
}

func (legacySchema) setAbsolute(ref *SampleRef, path string) error {
	data := ref.fileRef.Child("Data")
	if data == nil {
		return &xmltree.NotFoundError{Path: "FileRef.Data"}
	}
	hexStr := pathcodec.EncodeLegacy(path)
	if err := rewriteDataBlock(data, hexStr); err != nil {
		return err
	}
	// Sets that went through collect-and-save mirror the reference under
	// SourceContext; keep the copies consistent.
	if second := ref.node.FindOptional("SourceContext.SourceContext.OriginalFileRef.FileRef.Data"); second != nil {
		if err := rewriteDataBlock(second, hexStr); err != nil {
			return err
		}
	}
	return nil
}

// rewriteDataBlock replaces a Data element's hex payload, preserving the
// indentation the block was originally written with.
func rewriteDataBlock(data *xmltree.Node, hexStr string) error {
	_, indent, err := hexblock.Extract(data.Text)
	if err != nil {
		return fmt.Errorf("read data block layout: %w", err)
	}
	data.Text = hexblock.Format(hexStr, indent)
	return nil
}

func (legacySchema) setRelative(ref *SampleRef, rel string) error {
	relative := ref.fileRef.Child("RelativePath")
	if relative == nil {
		return &xmltree.NotFoundError{Path: "FileRef.RelativePath"}
	}
	old := relative.RemoveChildren()
	tails := make([]string, len(old))
	for i, element := range old {
		tails[i] = element.Tail
	}

	parts := strings.Split(rel, "/")
	dirs := parts[:len(parts)-1]
	for i, dir := range dirs {
		element := &xmltree.Node{
			Tag:   "RelativePathElement",
			Attrs: []xmltree.Attribute{{Name: "Dir", Value: dir}},
		}
		// Reuse the original whitespace tails so the rewritten list keeps
		// the document layout even when the directory count changes.
		switch {
		case i < len(tails):
			element.Tail = tails[i]
		case len(tails) > 0:
			element.Tail = tails[len(tails)-1]
		}
		relative.AppendChild(element)
	}
	return nil
}

func (legacySchema) setRelativeType(ref *SampleRef, relType int) {
	if hasRelative := ref.fileRef.Child("HasRelativePath"); hasRelative != nil {
		switch relType {
		case RelativeTypeCollected:
			hasRelative.SetAttr("Value", "true")
		case RelativeTypeUnset, RelativeTypeAbsolute:
			hasRelative.SetAttr("Value", "false")
		}
	}
	writeRelativeType(ref, relType)
}

// modernSchema handles 11+ sets, where every path is a plain string
// attribute regardless of origin OS.
type modernSchema struct{}

func (modernSchema) parse(ref *SampleRef) error {
	path, err := ref.fileRef.FindAttr("Path", "Value")
	if err != nil {
		return fmt.Errorf("read sample path: %w", err)
	}
	ref.Absolute = path
	ref.Name = baseName(path)
	ref.Relative, _ = ref.fileRef.FindAttr("RelativePath", "Value")
	if crc, err := ref.fileRef.FindAttr("OriginalCrc", "Value"); err == nil {
		ref.Crc = crc
	} else {
		ref.Crc = "0"
	}
	return nil
}

func (modernSchema) setAbsolute(ref *SampleRef, path string) error {
	element := ref.fileRef.Child("Path")
	if element == nil {
		return &xmltree.NotFoundError{Path: "FileRef.Path"}
	}
	element.SetAttr("Value", path)
	return nil
}

func (modernSchema) setRelative(ref *SampleRef, rel string) error {
	element := ref.fileRef.Child("RelativePath")
	if element == nil {
		return &xmltree.NotFoundError{Path: "FileRef.RelativePath"}
	}
	element.SetAttr("Value", rel)
	return nil
}

func (modernSchema) setRelativeType(ref *SampleRef, relType int) {
	writeRelativeType(ref, relType)
}

func writeRelativeType(ref *SampleRef, relType int) {
	if element := ref.fileRef.Child("RelativePathType"); element != nil {
		element.SetAttr("Value", fmt.Sprintf("%d", relType))
	}
}
