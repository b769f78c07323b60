package bonk

import "github.com/NikitaCartes-forks/bonk/internal/actionlog"

const (
	BonkIdentifier = "villager-bonk"
	BlamIdentifier = "villager-blam"

	translationEntity = "entity"
)

type BonkActionType struct{}

func (BonkActionType) Identifier() string      { return BonkIdentifier }
func (BonkActionType) TranslationType() string { return translationEntity }

type BlamActionType struct{}

func (BlamActionType) Identifier() string      { return BlamIdentifier }
func (BlamActionType) TranslationType() string { return translationEntity }

// RegisterActionTypes registers the bonk and blam action types with r.
func RegisterActionTypes(r *actionlog.Registry) error {
	if err := r.Register(func() actionlog.ActionType { return BonkActionType{} }); err != nil {
		return err
	}
	return r.Register(func() actionlog.ActionType { return BlamActionType{} })
}
