package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"makecommunity/internal/feed"
	"makecommunity/internal/store"
	"makecommunity/internal/utils"

	"github.com/gin-gonic/gin"
)

type SEOHandler struct {
	store   store.Store
	siteURL string
	now     func() time.Time
}

func NewSEOHandler(st store.Store, siteURL string) *SEOHandler {
	return &SEOHandler{store: st, siteURL: siteURL, now: time.Now}
}

// RobotsTxt keeps crawlers off the account and action endpoints.
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /login
Disallow: /signup
Disallow: /logout
Disallow: /write
Disallow: /profile
Disallow: /reset-password
Disallow: /auth/
Disallow: /comments/

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// SitemapXML lists the home and search pages plus the most recent posts.
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	now := h.now()
	today := now.Format("2006-01-02")

	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: h.siteURL + "/", LastMod: today, ChangeFreq: "hourly", Priority: "1.0"},
			{Loc: h.siteURL + "/search", LastMod: today, ChangeFreq: "weekly", Priority: "0.5"},
		},
	}

	posts, err := h.store.ListPosts(c.Request.Context(), store.ListOptions{Limit: store.SearchLimit})
	if err != nil {
		log().Error().Err(err).Msg("failed to list posts for sitemap")
	}
	for _, p := range posts {
		// Newer posts change more often and rank higher.
		priority, changefreq := "0.6", "weekly"
		if age := now.Sub(p.CreatedAt); age < 7*24*time.Hour {
			priority, changefreq = "0.8", "daily"
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.siteURL + feed.PostPath(p.ID),
			LastMod:    p.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: changefreq,
			Priority:   priority,
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Author      string `xml:"author,omitempty"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	Items       []rssItem `xml:"item"`
}

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

// FeedXML serves the home listing as RSS 2.0.
func (h *SEOHandler) FeedXML(c *gin.Context) {
	posts, err := h.store.ListPosts(c.Request.Context(), store.ListOptions{Limit: store.HomeLimit})
	if err != nil {
		log().Error().Err(err).Msg("failed to list posts for rss")
		c.String(http.StatusServiceUnavailable, "feed unavailable")
		return
	}

	doc := rssDoc{
		Version: "2.0",
		Channel: rssChannel{
			Title:       "MakeCommunity",
			Link:        h.siteURL + "/",
			Description: "MakeCommunity 최신 게시글",
			Language:    "ko",
		},
	}
	for _, p := range posts {
		link := h.siteURL + feed.PostPath(p.ID)
		item := rssItem{
			Title:       p.Title,
			Link:        link,
			GUID:        link,
			PubDate:     p.CreatedAt.UTC().Format(time.RFC1123Z),
			Description: utils.Excerpt(p.Content, 300),
		}
		if p.Author != nil {
			item.Author = p.Author.Username
		}
		doc.Channel.Items = append(doc.Channel.Items, item)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", append([]byte(xml.Header), out...))
}
