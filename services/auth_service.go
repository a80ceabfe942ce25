package services

import (
	"errors"
	"time"

	"acroparty/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotGuest           = errors.New("player is already registered")
)

// AuthService issues identities: anonymous guest players carrying an opaque
// token, and registered users carrying a signed JWT. Every game action takes
// the resolved player explicitly; nothing reads ambient session state.
type AuthService struct {
	db        *gorm.DB
	jwtSecret string
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{db: db, jwtSecret: jwtSecret}
}

// CreateGuest mints a guest player with a fresh opaque token.
func (s *AuthService) CreateGuest(nickname string) (*models.Player, error) {
	player := models.Player{
		GuestToken: uuid.NewString(),
		Nickname:   nickname,
	}
	if err := s.db.Create(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

// Register creates a user account plus its player identity and returns a JWT.
func (s *AuthService) Register(email, nickname, password string) (*models.Player, string, error) {
	var existing int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, "", err
	}
	if existing > 0 {
		return nil, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	var player models.Player
	err = s.db.Transaction(func(tx *gorm.DB) error {
		user := models.User{Email: email, Nickname: nickname, PasswordHash: string(hash)}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		player = models.Player{
			UserID:     &user.ID,
			GuestToken: uuid.NewString(),
			Nickname:   nickname,
		}
		return tx.Create(&player).Error
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(*player.UserID)
	if err != nil {
		return nil, "", err
	}
	return &player, token, nil
}

// ConvertGuest upgrades a guest player to a registered account. The player row
// survives, so accumulated lifetime statistics carry over to the new user.
func (s *AuthService) ConvertGuest(player *models.Player, email, password string) (*models.Player, string, error) {
	if !player.IsGuest() {
		return nil, "", ErrNotGuest
	}

	var existing int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, "", err
	}
	if existing > 0 {
		return nil, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		user := models.User{Email: email, Nickname: player.Nickname, PasswordHash: string(hash)}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if err := tx.Model(player).Update("user_id", user.ID).Error; err != nil {
			return err
		}
		player.UserID = &user.ID
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(*player.UserID)
	if err != nil {
		return nil, "", err
	}
	return player, token, nil
}

func (s *AuthService) Login(email, password string) (*models.Player, string, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	var player models.Player
	if err := s.db.Where("user_id = ?", user.ID).First(&player).Error; err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return &player, token, nil
}

// ResolvePlayer maps a bearer token to a player: a valid JWT resolves by user
// id, anything else is tried as a guest token.
func (s *AuthService) ResolvePlayer(token string) (*models.Player, error) {
	if userID, err := s.parseToken(token); err == nil {
		var player models.Player
		if err := s.db.Where("user_id = ?", userID).First(&player).Error; err == nil {
			return &player, nil
		}
		return nil, ErrInvalidToken
	}

	var player models.Player
	err := s.db.Where("guest_token = ?", token).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *AuthService) issueToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(30 * 24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) parseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, ErrInvalidToken
	}
	return uint(userID), nil
}
