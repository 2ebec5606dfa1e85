package helpers

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index < 0 || index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// ResolveURL turns a listing href into an absolute URL on origin
func ResolveURL(origin, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	base, err := url.Parse(origin)
	if err != nil {
		return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(href, "/")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(href, "/")
	}
	return base.ResolveReference(ref).String()
}

// AppendQueryParam adds name=value using "&" when base already carries a query, else "?"
func AppendQueryParam(base, name string, value int) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + name + "=" + strconv.Itoa(value)
}
