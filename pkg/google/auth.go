// Package google handles OAuth credentials and service construction for
// the Google APIs (Gmail and Sheets).
package google

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// Scopes requested for the tracker: label management on the mailbox and
// read/write access to the ledger spreadsheet.
var Scopes = []string{
	gmail.GmailModifyScope,
	sheets.SpreadsheetsScope,
}

// Auth holds the file paths of the OAuth app credentials and the cached
// user token.
type Auth struct {
	CredentialsPath string
	TokenPath       string
}

// HTTPClient builds an authenticated HTTP client from the credential and
// token files. A missing or expired token is an error; run the auth flow
// via AuthURL and Exchange first.
func (a Auth) HTTPClient(ctx context.Context) (*http.Client, error) {
	config, err := a.config()
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(a.TokenPath)
	if err != nil {
		return nil, eris.Wrapf(err, "google: load token %s (run the auth flow first)", a.TokenPath)
	}

	return config.Client(ctx, tok), nil
}

// AuthURL returns the consent URL for the interactive auth flow.
func (a Auth) AuthURL() (string, error) {
	config, err := a.config()
	if err != nil {
		return "", err
	}
	return config.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
}

// Exchange trades an authorization code for a token and caches it at
// TokenPath.
func (a Auth) Exchange(ctx context.Context, code string) error {
	config, err := a.config()
	if err != nil {
		return err
	}

	tok, err := config.Exchange(ctx, code)
	if err != nil {
		return eris.Wrap(err, "google: exchange authorization code")
	}
	return saveToken(a.TokenPath, tok)
}

func (a Auth) config() (*oauth2.Config, error) {
	b, err := os.ReadFile(a.CredentialsPath)
	if err != nil {
		return nil, eris.Wrapf(err, "google: read credentials %s", a.CredentialsPath)
	}

	config, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, eris.Wrap(err, "google: parse credentials")
	}
	return config, nil
}

// NewGmailService creates a Gmail API service over an authenticated client.
func NewGmailService(ctx context.Context, client *http.Client) (*gmail.Service, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, eris.Wrap(err, "google: create gmail service")
	}
	return svc, nil
}

// NewSheetsService creates a Sheets API service over an authenticated client.
func NewSheetsService(ctx context.Context, client *http.Client) (*sheets.Service, error) {
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, eris.Wrap(err, "google: create sheets service")
	}
	return svc, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, eris.Wrapf(err, "google: decode token %s", path)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return eris.Wrapf(err, "google: cache token %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return eris.Wrap(err, "google: encode token")
	}
	return nil
}
