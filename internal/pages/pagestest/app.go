// Package pagestest wires a scripted sign-in application into a drivertest
// session so page objects and scenarios can run without a browser.
package pagestest

import (
	"context"
	"sync"

	"github.com/v0xg/pagekit/internal/driver/drivertest"
	"github.com/v0xg/pagekit/internal/locator"
)

// HomeTitle is the document title of the signed-in landing page.
const HomeTitle = "Online Shopping site in India: Shop Online for Mobiles, Books, Watches, Shoes and More - Amazon.in"

// Refs the fixture registers nodes under. They mirror the page objects.
var (
	Email        = locator.XPath("//input[@id ='ap_email']")
	Continue     = locator.ID("continue")
	Password     = locator.ID("ap_password")
	SignIn       = locator.ID("signInSubmit")
	Welcome      = locator.ID("nav-link-accountList-nav-line-1")
	ErrorBox     = locator.ID("auth-error-message-box")
	SearchBox    = locator.XPath("//input[@id='twotabsearchtextbox']")
	SearchButton = locator.ID("nav-search-submit-button")
)

// App describes the account the fixture accepts.
type App struct {
	URL      string
	Email    string
	Password string
	Name     string
}

// State records what the fixture observed.
type State struct {
	mu       sync.Mutex
	searches []string
}

// Searches returns the terms submitted through the search box.
func (s *State) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

// Install routes app.URL to a two-step sign-in form and app.URL+"/home" to the
// landing page.
func Install(d *drivertest.Driver, app App) *State {
	if app.Name == "" {
		app.Name = "Ada"
	}
	state := &State{}

	emailNode := &drivertest.Node{Label: "email"}
	passwordNode := &drivertest.Node{Label: "password"}

	d.Route(app.URL, func(d *drivertest.Driver) {
		d.SetTitle("Amazon Sign-In")
		emailNode = &drivertest.Node{Label: "email"}
		d.Put(Email, emailNode)
		d.Put(Continue, &drivertest.Node{
			Label: "continue",
			OnClick: func(d *drivertest.Driver) {
				d.Remove(Email)
				d.Remove(Continue)
				passwordNode = &drivertest.Node{Label: "password"}
				d.Put(Password, passwordNode)
				d.Put(SignIn, &drivertest.Node{
					Label: "sign-in",
					OnClick: func(d *drivertest.Driver) {
						if emailNode.Value == app.Email && passwordNode.Value == app.Password {
							_ = d.Navigate(context.Background(), app.URL+"/home")
							return
						}
						d.Put(ErrorBox, &drivertest.Node{
							Label: "auth-error",
							Text:  "Your password is incorrect",
						})
					},
				})
			},
		})
	})

	d.Route(app.URL+"/home", func(d *drivertest.Driver) {
		d.SetTitle(HomeTitle)
		d.Put(Welcome, &drivertest.Node{Label: "welcome", Text: "Hello, " + app.Name})
		searchNode := &drivertest.Node{Label: "search-box"}
		d.Put(SearchBox, searchNode)
		d.Put(SearchButton, &drivertest.Node{
			Label: "search-button",
			OnClick: func(*drivertest.Driver) {
				state.mu.Lock()
				state.searches = append(state.searches, searchNode.Value)
				state.mu.Unlock()
			},
		})
	})

	return state
}
