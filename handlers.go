package pubfront

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubfront/detail"
	"github.com/eringen/pubfront/listing"
	"github.com/eringen/pubfront/views"
)

func (a *App) handleHome(c echo.Context) error {
	page, err := a.Cache.FirstPage(c.Request().Context())
	if err != nil {
		return err
	}
	agg := listing.New(a.Client)
	agg.Initialize(page)
	hasMore := agg.State() == listing.Loaded
	if hasMore {
		if id, ok := listingID(c); ok && a.listings.Replace(id, agg) {
			return Render(c, a.Views.Home(agg.Posts(), hasMore))
		}
		id := a.listings.Add(agg)
		if err := setListingID(c, id); err != nil {
			a.listings.Remove(id)
			return err
		}
	}
	return Render(c, a.Views.Home(agg.Posts(), hasMore))
}

func (a *App) handleLoadMore(c echo.Context) error {
	if !isHTMX(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	id, ok := listingID(c)
	var agg *listing.Aggregator
	if ok {
		agg, ok = a.listings.Get(id)
	}
	if !ok {
		// The listing expired; reload the page to start a new one.
		c.Response().Header().Set("HX-Refresh", "true")
		return c.NoContent(http.StatusNoContent)
	}

	added, err := agg.LoadMore(c.Request().Context())
	switch {
	case errors.Is(err, listing.ErrLoadInProgress):
		return c.NoContent(http.StatusNoContent)
	case err != nil:
		c.Logger().Warnf("load more: %v", err)
		return Render(c, a.Views.MorePosts(nil, true, true))
	}
	return Render(c, a.Views.MorePosts(added, agg.State() == listing.Loaded, false))
}

func (a *App) handlePost(c echo.Context) error {
	uid := c.Param("uid")
	if v, ok := a.Cache.CachedPost(uid); ok {
		return RenderSwap(c, http.StatusOK, a.Views.PostPartial(v), a.Views.Post(v))
	}
	if c.QueryParam(views.PartialParam) != "post" {
		return Render(c, a.Views.PostPending(uid))
	}

	v, err := a.Cache.Post(c.Request().Context(), uid)
	if err != nil {
		// htmx only swaps successful responses into the pending page.
		if isHTMX(c) {
			c.Logger().Errorf("post %s: %v", uid, err)
			return Render(c, a.Views.ServerErrorPartial(uid))
		}
		return err
	}
	if v.State == detail.NotFound {
		if isHTMX(c) {
			return Render(c, a.Views.NotFoundPartial())
		}
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	return RenderSwap(c, http.StatusOK, a.Views.PostPartial(v), a.Views.Post(v))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.AllPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.AllPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
