package internal

import (
	"path"
	"strings"
)

// ResolveRelativeName resolves a template name starting with ./ or ../
// against the directory of origin, the template the name was written in.
// Other names are returned unchanged.
func ResolveRelativeName(origin, name string) (string, error) {
	if !IsRelativeName(name) {
		return name, nil
	}
	if origin == StringValueEmpty {
		return StringValueEmpty, &PathError{Message: ErrMsgRelativePathNoOrigin, Name: name}
	}

	trimmedOrigin := strings.TrimLeft(origin, "/")
	resolved := path.Clean(path.Join(path.Dir(trimmedOrigin), name))

	if resolved == PathParent || strings.HasPrefix(resolved, RelPrefixParent) {
		return StringValueEmpty, &PathError{Message: ErrMsgRelativePathEscapes, Name: name, Origin: origin}
	}
	if resolved == trimmedOrigin {
		return StringValueEmpty, &PathError{Message: ErrMsgRelativePathSelf, Name: name, Origin: origin}
	}
	return resolved, nil
}

// IsRelativeName reports whether name is relative to its template.
func IsRelativeName(name string) bool {
	return strings.HasPrefix(name, RelPrefixCurrent) || strings.HasPrefix(name, RelPrefixParent)
}

// PathError reports a relative template name that cannot be resolved.
type PathError struct {
	Message string
	Name    string
	Origin  string
}

// Error implements the error interface.
func (e *PathError) Error() string {
	if e.Origin == StringValueEmpty {
		return e.Message + ": " + e.Name
	}
	return e.Message + ": " + e.Name + " (in " + e.Origin + ")"
}

// ErrMsgRelativePathNoOrigin reports a relative name used in a template
// that has no name.
const ErrMsgRelativePathNoOrigin = "relative path cannot be evaluated due to an unknown template origin"
