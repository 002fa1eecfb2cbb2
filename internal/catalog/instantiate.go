package catalog

import (
	"fmt"

	"github.com/sungrove/voiceboard-go/internal/canvas"
)

// Instantiate builds a fresh canvas store from a template and a
// business name. An empty template id means "start blank" and yields
// only the three core nodes. Calling twice with the same arguments
// yields structurally equal output; node and edge ids differ.
func Instantiate(templateID, businessName string) (*canvas.Store, error) {
	store := canvas.NewStore()

	if templateID == "" {
		applyBlankProfile(store, businessName)
		return store, nil
	}

	tpl, ok := Lookup(templateID)
	if !ok {
		return nil, fmt.Errorf("unknown template %q", templateID)
	}

	profile := canvas.Profile{
		Name:                agentName(businessName),
		BusinessName:        businessName,
		BusinessType:        tpl.BusinessType,
		BusinessDescription: tpl.Description,
		Instructions:        Render(tpl.Instructions, businessName),
		FirstMessage:        Render(tpl.FirstMessage, businessName),
		Voice:               tpl.Voice,
		Language:            tpl.Language,
	}
	store.SetProfile(profile)
	refreshCoreLabels(store, profile)

	for _, seed := range tpl.Tools {
		store.AddToolNode(canvas.ToolPayload{ToolType: seed.ToolType, Label: seed.Label})
	}
	for _, seed := range tpl.Integrations {
		store.AddIntegrationNode(canvas.IntegrationPayload{
			IntegrationType:  seed.IntegrationType,
			Platform:         seed.Platform,
			Label:            seed.Label,
			ConnectionStatus: canvas.StatusDisconnected,
		})
	}
	return store, nil
}

func applyBlankProfile(store *canvas.Store, businessName string) {
	profile := canvas.Profile{
		Name:         agentName(businessName),
		BusinessName: businessName,
		Language:     "en",
	}
	store.SetProfile(profile)
	refreshCoreLabels(store, profile)
}

func agentName(businessName string) string {
	if businessName == "" {
		return ""
	}
	return businessName + " Assistant"
}

// refreshCoreLabels projects profile values onto the core nodes'
// display labels. Labels are write-only; nothing reads them back into
// the profile.
func refreshCoreLabels(store *canvas.Store, profile canvas.Profile) {
	business := profile.BusinessName
	if business == "" {
		business = BusinessTypeLabel(profile.BusinessType)
	}
	store.SetNodeLabel(canvas.BusinessNodeID, business)
	store.SetNodeLabel(canvas.PersonalityNodeID, profile.Name)
	store.SetNodeLabel(canvas.VoiceNodeID, profile.Voice)
}

// Resubstitute rewrites template-derived text after the business name
// changes. Only fields that still carry the unresolved placeholder
// token or exactly match the seed rendered with the previous name are
// touched; operator-customized text is never overwritten.
func Resubstitute(store *canvas.Store, tpl *Template, oldName, newName string) {
	if store == nil {
		return
	}

	profile := store.Profile()
	patch := canvas.ProfilePatch{}

	if tpl != nil {
		if stillDefault(profile.FirstMessage, tpl.FirstMessage, oldName) {
			rendered := Render(tpl.FirstMessage, newName)
			patch.FirstMessage = &rendered
		}
		if stillDefault(profile.Instructions, tpl.Instructions, oldName) {
			rendered := Render(tpl.Instructions, newName)
			patch.Instructions = &rendered
		}
	}
	if profile.Name == agentName(oldName) || profile.Name == "" {
		name := agentName(newName)
		patch.Name = &name
	}
	store.PatchProfile(patch)

	refreshCoreLabels(store, store.Profile())
}

// stillDefault reports whether the current value is untouched template
// output: either the raw seed with its token unresolved, or the seed
// rendered with the previous business name. A value-equality check,
// not a dirty flag.
func stillDefault(current, seed, oldName string) bool {
	if current == "" || current == seed {
		return true
	}
	return current == Render(seed, oldName)
}
