package handler

import (
	"net/http"

	"github.com/rs/xid"
)

type identityResponse struct {
	AnonID string `json:"anonId"`
}

// HandleNewIdentity mints an anonymous identity for clients that cannot
// generate their own. Nothing is stored: the id only means something once
// it is sent back with a like or a review.
//
// HTTP: POST /identities → 201 {"anonId": "cn3f5bqlhgsb2ocv0fu0"}
//
// xid ids are 20 characters, sortable and URL-safe.
func HandleNewIdentity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, identityResponse{AnonID: xid.New().String()})
}
