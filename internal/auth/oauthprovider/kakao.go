package oauthprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/oauth2"
)

// UserInfo is the provider-neutral identity a provider resolves a token to.
type UserInfo struct {
	Provider   string
	ProviderID string
	Nickname   string
	Email      string
}

var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:  "https://kauth.kakao.com/oauth/authorize",
	TokenURL: "https://kauth.kakao.com/oauth/token",
}

type KakaoConfig struct {
	config *oauth2.Config
}

func NewKakaoConfig(clientID, clientSecret, redirectURL string) *KakaoConfig {
	return &KakaoConfig{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"profile_nickname",
				"account_email",
			},
			Endpoint: kakaoEndpoint,
		},
	}
}

func (k *KakaoConfig) Name() string {
	return "kakao"
}

func (k *KakaoConfig) Config() *oauth2.Config {
	return k.config
}

func (k *KakaoConfig) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return k.config.Exchange(ctx, code)
}

// KakaoUserInfo represents the response from Kakao's user API
type KakaoUserInfo struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname string `json:"nickname"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

// GetUserInfo fetches user information from Kakao's API
func (k *KakaoConfig) GetUserInfo(ctx context.Context, token *oauth2.Token) (UserInfo, error) {
	client := k.config.Client(ctx, token)

	resp, err := client.Get("https://kapi.kakao.com/v2/user/me")
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to get Kakao user info: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to read Kakao user info: %v", err)
	}

	var kakaoUser KakaoUserInfo
	err = json.Unmarshal(body, &kakaoUser)
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to unmarshal Kakao user info: %v", err)
	}

	return UserInfo{
		Provider:   "kakao",
		ProviderID: strconv.FormatInt(kakaoUser.ID, 10),
		Nickname:   kakaoUser.KakaoAccount.Profile.Nickname,
		Email:      kakaoUser.KakaoAccount.Email,
	}, nil
}
