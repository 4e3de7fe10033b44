package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"

	"ticketfairy/internal/models"
)

// Generator renders an e-ticket QR code whose payload is the AES-encrypted
// sale record, so the code can be verified by anyone holding the secret.
type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// EncryptTicket returns the encrypted QR payload for a ticket.
func (g *Generator) EncryptTicket(ticket models.Ticket) (string, error) {
	data, err := json.Marshal(ticket)
	if err != nil {
		return "", err
	}
	return encryptAES(data, g.secret)
}

// GenerateEncryptedQR returns a PNG QR code for the given ticket.
func (g *Generator) GenerateEncryptedQR(ticket models.Ticket) ([]byte, error) {
	encrypted, err := g.EncryptTicket(ticket)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

// DecryptTicketData reverses the QR payload back into the sale record.
func (g *Generator) DecryptTicketData(encoded string) (*models.Ticket, error) {
	data, err := decryptAES(encoded, g.secret)
	if err != nil {
		return nil, err
	}

	var ticket models.Ticket
	if err := json.Unmarshal(data, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(encoded string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := ciphertext[:aes.BlockSize]
	data := make([]byte, len(ciphertext)-aes.BlockSize)

	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(data, ciphertext[aes.BlockSize:])

	return data, nil
}
