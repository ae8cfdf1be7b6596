package router

import (
	"fmt"
	"html/template"
	"io/fs"
	"time"

	"makecommunity/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

// pages maps the names handlers render to their view files.
var pages = map[string]string{
	"home.html":                "views/home.html",
	"search.html":              "views/search.html",
	"profile.html":             "views/profile.html",
	"error.html":               "views/error.html",
	"post/detail.html":         "views/post/detail.html",
	"post/write.html":          "views/post/write.html",
	"post/edit.html":           "views/post/edit.html",
	"auth/login.html":          "views/auth/login.html",
	"auth/signup.html":         "views/auth/signup.html",
	"auth/reset_password.html": "views/auth/reset_password.html",
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return utils.TimeAgo(t)
		},
		"formatDate": utils.FormatDate,
		"markdown":   utils.RenderMarkdown,
	}
}

// LoadTemplates builds one template set per page from fsys, which must
// contain templates/layouts, templates/components and templates/views.
// Each set is the layout, every component and the page's view.
func LoadTemplates(fsys fs.FS) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	layouts, err := fs.Glob(fsys, "templates/layouts/*.html")
	if err != nil {
		return nil, err
	}
	components, err := fs.Glob(fsys, "templates/components/*.html")
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layouts found")
	}

	funcs := funcMap()
	for name, view := range pages {
		files := make([]string, 0, len(layouts)+len(components)+1)
		files = append(files, layouts...)
		files = append(files, components...)
		files = append(files, "templates/"+view)

		tmpl, err := template.New("base.html").Funcs(funcs).ParseFS(fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.Add(name, tmpl)
	}
	return r, nil
}
