package service

import "github.com/boxforum/boxforum/shared/domain"

// canModerate: admins, global moderators and the box's own moderators.
func canModerate(viewer *domain.User, box domain.Box) bool {
	if viewer == nil {
		return false
	}
	if viewer.Role == domain.RoleAdmin {
		return true
	}
	if box.IsBanned(viewer.Id) {
		return false
	}
	return viewer.Role == domain.RoleModerator || box.IsModerator(viewer.Id)
}

func deleterStatus(viewer *domain.User, author domain.UserId, box domain.Box) domain.DeleterStatus {
	switch {
	case viewer == nil:
		return domain.DeleterUser
	case viewer.Role == domain.RoleAdmin:
		return domain.DeleterAdmin
	case canModerate(viewer, box):
		return domain.DeleterModerator
	case viewer.Id == author && !box.IsBanned(viewer.Id):
		return domain.DeleterAuthor
	}
	return domain.DeleterUser
}

func updaterStatus(viewer *domain.User, author domain.UserId, box domain.Box) domain.UpdaterStatus {
	if viewer != nil && viewer.Id == author && !box.IsBanned(viewer.Id) {
		return domain.UpdaterAuthor
	}
	return domain.UpdaterUser
}

func canDelete(viewer *domain.User, author domain.UserId, box domain.Box) bool {
	return deleterStatus(viewer, author, box) != domain.DeleterUser
}

func canUpdate(viewer *domain.User, author domain.UserId, box domain.Box) bool {
	return updaterStatus(viewer, author, box) == domain.UpdaterAuthor
}

func permissionFlags(viewer *domain.User, author domain.UserId, box domain.Box) (isUpdater, isDeleter int) {
	if canUpdate(viewer, author, box) {
		isUpdater = 1
	}
	if canDelete(viewer, author, box) {
		isDeleter = 1
	}
	return isUpdater, isDeleter
}

func viewerId(viewer *domain.User) domain.UserId {
	if viewer == nil {
		return ""
	}
	return viewer.Id
}
