package bdd

import (
	"context"
	"errors"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/v0xg/pagekit/internal/pages"
)

type stepState struct {
	login *pages.LoginPage
	home  *pages.HomePage
}

func (s *scenario) registerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the user is on the sign-in page$`, s.openSignIn)
	sc.Step(`^the user enters email "([^"]*)"$`, s.enterEmail)
	sc.Step(`^the user clicks continue$`, s.clickContinue)
	sc.Step(`^the user enters password "([^"]*)"$`, s.enterPassword)
	sc.Step(`^the user clicks sign in$`, s.clickSignIn)
	sc.Step(`^the welcome message is displayed$`, s.welcomeDisplayed)
	sc.Step(`^the welcome message is not displayed$`, s.welcomeNotDisplayed)
	sc.Step(`^the error message is displayed$`, s.errorDisplayed)
	sc.Step(`^the user signs in as "([^"]*)" with password "([^"]*)"$`, s.signIn)
	sc.Step(`^the user signs in with the test data account$`, s.signInFromData)
	sc.Step(`^the home page title is "([^"]*)"$`, s.homeTitleIs)
	sc.Step(`^the home page title is correct$`, s.homeTitleCorrect)
	sc.Step(`^the user searches for "([^"]*)"$`, s.search)
	sc.Step(`^the user searches for the test data term$`, s.searchFromData)
}

var errNotSignedIn = errors.New("the user is not signed in")

func (s *scenario) openSignIn(ctx context.Context) error {
	return s.steps.login.Open(ctx, s.runner.Settings.AppURL)
}

func (s *scenario) enterEmail(ctx context.Context, email string) error {
	return s.steps.login.EnterEmail(ctx, email)
}

func (s *scenario) clickContinue(ctx context.Context) error {
	return s.steps.login.ClickContinue(ctx)
}

func (s *scenario) enterPassword(ctx context.Context, password string) error {
	return s.steps.login.EnterPassword(ctx, password)
}

func (s *scenario) clickSignIn(ctx context.Context) error {
	return s.steps.login.ClickSignInSubmit(ctx)
}

func (s *scenario) welcomeDisplayed(ctx context.Context) error {
	home, err := s.steps.login.Home(ctx)
	if err != nil {
		return err
	}
	s.steps.home = home
	return nil
}

func (s *scenario) welcomeNotDisplayed(ctx context.Context) error {
	ok, err := s.steps.login.IsWelcomeMessageDisplayed(ctx)
	if err != nil {
		return err
	}
	if ok {
		return errors.New("welcome message is displayed")
	}
	return nil
}

func (s *scenario) errorDisplayed(ctx context.Context) error {
	ok, err := s.steps.login.IsErrorMessageDisplayed(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("sign-in error message not found")
	}
	return nil
}

func (s *scenario) signIn(ctx context.Context, email, password string) error {
	home, err := s.steps.login.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	s.steps.home = home
	return nil
}

func (s *scenario) signInFromData(ctx context.Context) error {
	email, err := s.runner.Data.Get("email")
	if err != nil {
		return err
	}
	password, err := s.runner.Data.Get("password")
	if err != nil {
		return err
	}
	return s.signIn(ctx, email, password)
}

func (s *scenario) homeTitleIs(ctx context.Context, want string) error {
	if s.steps.home == nil {
		return errNotSignedIn
	}
	return s.steps.home.AssertTitle(ctx, want)
}

func (s *scenario) homeTitleCorrect(ctx context.Context) error {
	return s.homeTitleIs(ctx, pages.HomeTitle)
}

func (s *scenario) search(ctx context.Context, term string) error {
	if s.steps.home == nil {
		return errNotSignedIn
	}
	if err := s.steps.home.Search(ctx, term); err != nil {
		return fmt.Errorf("search %q: %w", term, err)
	}
	return nil
}

func (s *scenario) searchFromData(ctx context.Context) error {
	term, err := s.runner.Data.Get("searchTerm")
	if err != nil {
		return err
	}
	return s.search(ctx, term)
}
