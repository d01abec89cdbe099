package repository

type Repositories struct {
	Picture PictureStore
}

func NewRepositories(picture PictureStore) *Repositories {
	return &Repositories{
		Picture: picture,
	}
}
