// Package secret resolves API tokens (Telegram, Pinecone) from encrypted
// resources using viant/scy, so plain-text credentials never live in the
// environment.
package secret

import (
	"context"
	"fmt"

	"github.com/viant/scy"
	"github.com/viant/scy/cred"
	"github.com/viant/toolbox"
)

// Service resolves secrets with viant/scy.
type Service struct {
	scyService *scy.Service
}

// New creates a new secret service
func New() *Service {
	return &Service{scyService: scy.New()}
}

// RevealInput defines parameters for revealing secrets
type RevealInput struct {
	SourceURL string `json:"sourceURL" required:"true" description:"URL to read the encrypted secret from"`
	Target    string `json:"target,omitempty" description:"Target credential type ('raw', 'basic', 'key', 'generic', etc.)"`
	Key       string `json:"key,omitempty" description:"Encryption key, e.g., 'blowfish://default'"`
}

// RevealOutput contains the revealed secret
type RevealOutput struct {
	PlainText string                 `json:"plainText,omitempty" description:"Decrypted content as string (for raw type)"`
	Data      map[string]interface{} `json:"data,omitempty" description:"Decrypted content as structured data (for typed secrets)"`
}

// Reveal decrypts a secret
func (s *Service) Reveal(ctx context.Context, input *RevealInput, output *RevealOutput) error {
	var target interface{}
	if input.Target != "" && input.Target != "raw" {
		targetType, err := cred.TargetType(input.Target)
		if err != nil {
			return fmt.Errorf("invalid target type '%s': %w", input.Target, err)
		}
		if targetType != nil {
			target = targetType
		}
	}
	resource := scy.NewResource(target, input.SourceURL, input.Key)
	secret, err := s.scyService.Load(ctx, resource)
	if err != nil {
		return fmt.Errorf("failed to load secret from %s: %w", input.SourceURL, err)
	}
	if !secret.IsPlain && secret.Target != nil {
		aMap := map[string]interface{}{}
		if err := toolbox.DefaultConverter.AssignConverted(&aMap, secret.Target); err != nil {
			return fmt.Errorf("failed to convert secret data: %w", err)
		}
		output.Data = toolbox.DeleteEmptyKeys(aMap)
		return nil
	}
	output.PlainText = secret.String()
	return nil
}

// Token is a convenience for resolving a raw API token from an encrypted
// resource URL.
func (s *Service) Token(ctx context.Context, sourceURL string) (string, error) {
	output := &RevealOutput{}
	if err := s.Reveal(ctx, &RevealInput{SourceURL: sourceURL, Key: "blowfish://default"}, output); err != nil {
		return "", err
	}
	if output.PlainText == "" {
		return "", fmt.Errorf("secret at %v is not a raw token", sourceURL)
	}
	return output.PlainText, nil
}
