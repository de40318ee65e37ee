package handlers

import (
	"net/http"

	"syncdeck/internal/handlers/dto"
)

type TeamHandler struct {
	TeamService TeamService
}

func NewTeamHandler(teamService TeamService) TeamHandler {
	return TeamHandler{TeamService: teamService}
}

func (s *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.TeamService.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "list_teams")
		return
	}
	responseWithData(w, http.StatusOK, teams)
}

func (s *TeamHandler) PostTeam(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}

	var request dto.TeamRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	team, err := s.TeamService.Create(r.Context(), current, request.Name)
	if err != nil {
		handleServiceError(w, r, err, "create_team")
		return
	}

	responseWithData(w, http.StatusOK, team)
}

func (s *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := s.TeamService.Delete(r.Context(), current, id); err != nil {
		handleServiceError(w, r, err, "delete_team")
		return
	}

	responseWithMessage(w, "Team deleted")
}
