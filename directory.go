package fluffy

import (
	"context"
	"github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"sync"
)

// cacheDisabledSize disables memoization of directory lookups
const cacheDisabledSize = 0

// Directory resolves user names, user ids and channels through a DirectoryClient. Successful
// user and channel lookups are memoized (ARC caches bounded by the configured size) while
// direct message channels are always opened remotely. Entries are never invalidated so a rename
// on slack isn't seen until eviction.
//
// It also tracks the configured admins whose ids get resolved as they become known
type Directory struct {
	client DirectoryClient
	logger SLogger

	namesByID      *lru.ARCCache
	idsByName      *lru.ARCCache
	channelsByName *lru.ARCCache

	adminsMu sync.RWMutex
	// admin names to their resolved id (empty until known)
	admins map[string]string
}

// NewDirectory creates a new Directory. A cacheSize of 0 disables memoization
func NewDirectory(client DirectoryClient, cacheSize int, adminNames []string, logger SLogger) (d *Directory, err error) {
	d = new(Directory)
	d.client = client
	d.logger = logger

	if cacheSize < cacheDisabledSize {
		return nil, errors.Errorf("invalid directory cache size [%d]", cacheSize)
	}

	if cacheSize > cacheDisabledSize {
		if d.namesByID, err = lru.NewARC(cacheSize); err != nil {
			return nil, err
		}

		if d.idsByName, err = lru.NewARC(cacheSize); err != nil {
			return nil, err
		}

		if d.channelsByName, err = lru.NewARC(cacheSize); err != nil {
			return nil, err
		}
	}

	d.admins = make(map[string]string)
	for _, a := range adminNames {
		d.admins[a] = ""
	}

	return d, nil
}

// NameForID returns the name of the user or an empty string if it can't be resolved
func (d *Directory) NameForID(ctx context.Context, userID string) (name string) {
	if userID == "" {
		return ""
	}

	if name, ok := cachedString(d.namesByID, userID); ok {
		return name
	}

	d.logger.Debugf("User name for [%s] not in cache, loading user info from slack\n", userID)
	u, err := d.client.GetUserInfo(ctx, userID)
	if err != nil || u == nil {
		d.logger.Debugf("Unable to resolve name of user [%s]: %v\n", userID, err)
		return ""
	}

	d.remember(u.Name, userID)

	return u.Name
}

// IDForName returns the id of the user with the given name or an empty string if there's no
// such user. A cache miss loads the full member list
func (d *Directory) IDForName(ctx context.Context, name string) (userID string) {
	if name == "" {
		return ""
	}

	if userID, ok := cachedString(d.idsByName, name); ok {
		return userID
	}

	d.logger.Debugf("User id for [%s] not in cache, listing users from slack\n", name)
	users, err := d.client.GetUsers(ctx)
	if err != nil {
		d.logger.Debugf("Unable to list users to resolve [%s]: %v\n", name, err)
		return ""
	}

	for _, u := range users {
		d.remember(u.Name, u.ID)

		if userID == "" && u.Name == name {
			userID = u.ID
		}
	}

	return userID
}

// DirectChannelFor opens the direct message channel with the user and returns its id or an
// empty string on failure
func (d *Directory) DirectChannelFor(ctx context.Context, userID string) (channelID string) {
	if userID == "" {
		return ""
	}

	channelID, err := d.client.OpenDirectChannel(ctx, userID)
	if err != nil {
		d.logger.Debugf("Unable to open direct channel with [%s]: %v\n", userID, err)
		return ""
	}

	return channelID
}

// ChannelByName returns the id of the channel with the given name or an empty string if it
// can't be found
func (d *Directory) ChannelByName(ctx context.Context, name string) (channelID string) {
	if name == "" {
		return ""
	}

	if channelID, ok := cachedString(d.channelsByName, name); ok {
		return channelID
	}

	channelID, err := d.client.FindChannelByName(ctx, name)
	if err != nil {
		d.logger.Debugf("Unable to find channel [%s]: %v\n", name, err)
		return ""
	}

	if d.channelsByName != nil {
		d.channelsByName.Add(name, channelID)
	}

	return channelID
}

// Populate seeds the directory with every member of the workspace and resolves the ids of the
// configured admins. It returns the bot name: configuredName when set or the name of the
// connected identity otherwise. The bot name is returned even when listing members fails
func (d *Directory) Populate(ctx context.Context, self *slack.UserDetails, configuredName string) (botName string, err error) {
	botName = configuredName
	if self != nil {
		d.remember(self.Name, self.ID)

		if botName == "" {
			botName = self.Name
		}
	}

	users, err := d.client.GetUsers(ctx)
	if err != nil {
		return botName, errors.Wrap(err, "failed to populate user directory")
	}

	d.adminsMu.Lock()
	defer d.adminsMu.Unlock()

	for _, u := range users {
		d.remember(u.Name, u.ID)

		if _, ok := d.admins[u.Name]; ok {
			d.admins[u.Name] = u.ID
		}
	}

	d.logger.Debugf("Populated directory with [%d] users\n", len(users))

	return botName, nil
}

// IsAdmin returns true if the user is a configured admin. An id that isn't known as an admin yet
// is resolved to its name and, if that name is a configured admin, the id is remembered so that
// later checks don't need the name. Unresolvable users aren't admins
func (d *Directory) IsAdmin(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}

	if d.isKnownAdmin(userID) {
		return true
	}

	name := d.NameForID(ctx, userID)
	if name == "" {
		return false
	}

	d.adminsMu.Lock()
	defer d.adminsMu.Unlock()

	if _, ok := d.admins[name]; ok {
		d.admins[name] = userID
		return true
	}

	return false
}

// isKnownAdmin returns true if the value is the name or the resolved id of an admin
func (d *Directory) isKnownAdmin(nameOrID string) bool {
	d.adminsMu.RLock()
	defer d.adminsMu.RUnlock()

	if _, ok := d.admins[nameOrID]; ok {
		return true
	}

	for _, id := range d.admins {
		if id == nameOrID {
			return true
		}
	}

	return false
}

// remember adds a name/id pair to both caches. Concurrent overwrites of the same pair are benign
func (d *Directory) remember(name string, userID string) {
	if name == "" || userID == "" {
		return
	}

	if d.namesByID != nil {
		d.namesByID.Add(userID, name)
	}

	if d.idsByName != nil {
		d.idsByName.Add(name, userID)
	}
}

// cachedString returns the string value cached for key, if any
func cachedString(cache *lru.ARCCache, key string) (value string, ok bool) {
	if cache == nil {
		return "", false
	}

	v, exists := cache.Get(key)
	if !exists {
		return "", false
	}

	value, ok = v.(string)

	return value, ok
}
